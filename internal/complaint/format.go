package complaint

import "fmt"

// CountUnknown marks a reply where the running total could not be read.
const CountUnknown int64 = -1

// ReplyText formats the channel announcement for a recorded complaint.
// The text quotes the complaint and, when the running total is known,
// appends the tally line. Pass CountUnknown to omit the tally.
func ReplyText(subject, text string, count int64) string {
	reply := fmt.Sprintf("*%s Complained!*\n\n> %s", subject, text)
	if count >= 0 {
		reply += fmt.Sprintf("\n\n%s has *%d* recorded complaints.", subject, count)
	}
	return reply
}

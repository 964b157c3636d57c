package logging

import "strings"

// PresentError formats err for the terminal as "action: message" with
// secrets masked and line breaks folded into spaces.
func PresentError(action string, err error) string {
	if err == nil {
		return ""
	}
	return action + ": " + strings.Join(strings.Fields(Mask(err.Error())), " ")
}

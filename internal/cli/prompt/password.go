package prompt

import (
	"fmt"

	"github.com/manifoldco/promptui"
)

// Password prompts for a masked, non-empty password.
func Password(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: NonEmpty,
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// AppliancePassword prompts for the password of userID on the appliance at
// address.
func AppliancePassword(userID, address string) (string, error) {
	return Password(fmt.Sprintf("Password for %s at %s", userID, address))
}

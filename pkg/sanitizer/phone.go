package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country code are tried against these regions in order.
var phoneRegions = [...]string{"US", "IL"}

var phonePunctuation = strings.NewReplacer(
	" ", "", "\t", "", "\n", "", "\r", "", "-", "", "(", "", ")", "", ".", "", "+", "",
)

// StripPhonePunctuation drops spaces, dashes, dots, parentheses and plus
// signs. Letters are kept so a digit check can still reject them.
func StripPhonePunctuation(phone string) string {
	return phonePunctuation.Replace(phone)
}

// NormalizePhone returns the E.164 form, or "" when no region parses phone.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	for _, region := range phoneRegions {
		if num, err := phonenumbers.Parse(phone, region); err == nil {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}
	return ""
}

// WirePhone is what collaborators receive: E.164 when parseable, otherwise
// the bare digits.
func WirePhone(phone string) string {
	if e164 := NormalizePhone(phone); e164 != "" {
		return e164
	}
	return StripPhonePunctuation(strings.TrimSpace(phone))
}

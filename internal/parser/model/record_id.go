package model

import (
	"strings"
	"unicode"
)

const userKeyPrefix = "005"

// recordKeyPrefixes are the standard objects whose ids identify the business
// record a transaction worked on. Custom objects use prefixes such as a0B.
var recordKeyPrefixes = map[string]bool{
	"001": true, // Account
	"003": true, // Contact
	"006": true, // Opportunity
	"00Q": true, // Lead
	"500": true, // Case
	"00T": true, // Task
	"00U": true, // Event
	"701": true, // Campaign
	"800": true, // Contract
	"801": true, // Order
	"02i": true, // Asset
}

// IsSalesforceId matches 15 or 18 character ids such as 005xx000001Sv6e or
// a0B5e00000AbCdE. Key prefixes start with a digit, or a letter and a digit.
func IsSalesforceId(value string) bool {
	if len(value) != 15 && len(value) != 18 {
		return false
	}
	first, second := rune(value[0]), rune(value[1])
	if !unicode.IsDigit(first) && !(unicode.IsLower(first) && unicode.IsDigit(second)) {
		return false
	}
	for _, r := range value {
		if r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func IsUserId(value string) bool {
	return IsSalesforceId(value) && strings.HasPrefix(value, userKeyPrefix)
}

// IsRecordId reports whether value is the id of a data record rather than of
// a user, class, trigger or other setup entity.
func IsRecordId(value string) bool {
	if !IsSalesforceId(value) {
		return false
	}
	prefix := value[:3]
	if recordKeyPrefixes[prefix] {
		return true
	}
	return prefix[0] == 'a' && unicode.IsDigit(rune(prefix[1]))
}

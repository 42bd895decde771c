package validation

import (
	"regexp"
	"unicode/utf8"
)

const (
	// CountryCodeMessage is reported when the dialing code is missing or too short
	CountryCodeMessage = "Country code is required"
	// DialCodeMessage is reported by the client when the code is not one it offers
	DialCodeMessage = "Please select a supported country code"
	// PhoneNumberMessage describes the accepted phone number shapes
	PhoneNumberMessage = "Please enter a valid phone number: 10 digits, (XXX) XXX-XXXX or XXX-XXX-XXXX"

	serverCountryCodeMinLen = 2
	clientCountryCodeMinLen = 1
)

// phonePattern accepts 5551234567, (555) 123-4567, (555)123-4567 and 555-123-4567
var phonePattern = regexp.MustCompile(`^\d{10}$|^\(\d{3}\)\s?\d{3}-\d{4}$|^\d{3}-\d{3}-\d{4}$`)

// DialCodes are the dialing codes offered by the contact form, in display order
var DialCodes = []string{"+1", "+44", "+61", "+91", "+33", "+49", "+86", "+81"}

// DefaultDialCode is preselected by the contact form
const DefaultDialCode = "+1"

// PhonePayload is the body of POST /api/phone
type PhonePayload struct {
	CountryCode string `json:"countryCode"`
	PhoneNumber string `json:"phoneNumber"`
}

// LocationPayload is the body of POST /api/sos. Coordinates are kept verbatim.
type LocationPayload struct {
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
	PhoneNumberID *int64 `json:"phoneNumberId,omitempty"`
}

// VideoPayload is the body of POST /api/video/upload. Only metadata is sent.
type VideoPayload struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

// ValidPhoneNumber reports whether s matches one of the accepted shapes
func ValidPhoneNumber(s string) bool {
	return phonePattern.MatchString(s)
}

// IsDialCode reports whether code is one of DialCodes
func IsDialCode(code string) bool {
	for _, c := range DialCodes {
		if c == code {
			return true
		}
	}
	return false
}

// ParsePhone validates a contact payload with the server rules
func ParsePhone(body []byte) (PhonePayload, error) {
	c := &collector{}
	obj, ok := decodeObject(c, body)
	if !ok {
		return PhonePayload{}, c.result()
	}

	var p PhonePayload
	if code, ok := obj.requiredString(c, "countryCode"); ok {
		p.CountryCode = code
		if utf8.RuneCountInString(code) < serverCountryCodeMinLen {
			c.add("countryCode", CountryCodeMessage)
		}
	}
	if phone, ok := obj.requiredString(c, "phoneNumber"); ok {
		p.PhoneNumber = phone
		if !ValidPhoneNumber(phone) {
			c.add("phoneNumber", PhoneNumberMessage)
		}
	}
	if err := c.result(); err != nil {
		return PhonePayload{}, err
	}
	return p, nil
}

// CheckContactForm validates contact input the way the client form does before
// submitting: a dialing code from DialCodes and one of the phone shapes.
func CheckContactForm(p PhonePayload) error {
	c := &collector{}
	switch {
	case utf8.RuneCountInString(p.CountryCode) < clientCountryCodeMinLen:
		c.add("countryCode", CountryCodeMessage)
	case !IsDialCode(p.CountryCode):
		c.add("countryCode", DialCodeMessage)
	}
	if !ValidPhoneNumber(p.PhoneNumber) {
		c.add("phoneNumber", PhoneNumberMessage)
	}
	return c.result()
}

// ParseLocation validates an SOS payload
func ParseLocation(body []byte) (LocationPayload, error) {
	c := &collector{}
	obj, ok := decodeObject(c, body)
	if !ok {
		return LocationPayload{}, c.result()
	}

	var p LocationPayload
	p.Latitude, _ = obj.requiredString(c, "latitude")
	p.Longitude, _ = obj.requiredString(c, "longitude")
	p.PhoneNumberID, _ = obj.optionalInteger(c, "phoneNumberId")

	if err := c.result(); err != nil {
		return LocationPayload{}, err
	}
	return p, nil
}

// ParseVideo validates video metadata
func ParseVideo(body []byte) (VideoPayload, error) {
	c := &collector{}
	obj, ok := decodeObject(c, body)
	if !ok {
		return VideoPayload{}, c.result()
	}

	var p VideoPayload
	if name, ok := obj.requiredString(c, "fileName"); ok {
		p.FileName = name
		if name == "" {
			c.add("fileName", "File name is required")
		}
	}
	if mime, ok := obj.requiredString(c, "mimeType"); ok {
		p.MimeType = mime
		if mime == "" {
			c.add("mimeType", "MIME type is required")
		}
	}
	if err := c.result(); err != nil {
		return VideoPayload{}, err
	}
	return p, nil
}

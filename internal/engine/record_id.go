package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RecordID is an entity identifier as sent by clients. Bulk requests may
// carry ids as JSON numbers or strings; integer ids are echoed back as
// numbers so responses mirror the request.
type RecordID string

func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a string or number")
	}
	*id = RecordID(n.String())
	return nil
}

func (id RecordID) MarshalJSON() ([]byte, error) {
	if id.isInteger() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id RecordID) String() string {
	return string(id)
}

// isInteger reports whether id is a canonical decimal integer literal.
func (id RecordID) isInteger() bool {
	s := string(id)
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if s[0] == '+' || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	return true
}

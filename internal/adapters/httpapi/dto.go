package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"clientcore/pkg/domain"
)

var (
	jsonNull  = []byte("null")
	jsonFalse = []byte("false")
)

// amount accepts a JSON number or numeric string. null, false and the empty
// string read as zero.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) || bytes.Equal(data, jsonFalse) {
		*a = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("balance %s is not a number", data)
	}
	*a = amount(f)
	return nil
}

// text accepts a JSON string or number; null and false read as empty.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, jsonNull), bytes.Equal(data, jsonFalse):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value %s is not text", data)
	}
	*t = text(n.String())
	return nil
}

type accountRequest struct {
	Number  text   `json:"number"`
	Balance amount `json:"balance"`
}

func (r accountRequest) input() domain.AccountInput {
	return domain.AccountInput{Number: string(r.Number), Balance: float64(r.Balance)}
}

// falsy reports whether data is null, false, "" or a numeric zero.
func falsy(data []byte) bool {
	switch {
	case bytes.Equal(data, jsonNull), bytes.Equal(data, jsonFalse), bytes.Equal(data, []byte(`""`)):
		return true
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		f, err := strconv.ParseFloat(string(data), 64)
		return err == nil && f == 0
	}
	return false
}

// optionalAccount is absent when the field is missing or falsy.
type optionalAccount struct {
	account *accountRequest
}

func (o *optionalAccount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if falsy(data) {
		o.account = nil
		return nil
	}
	var acc accountRequest
	if err := json.Unmarshal(data, &acc); err != nil {
		return err
	}
	o.account = &acc
	return nil
}

// accountList is empty when the field is missing or falsy. Null entries are
// refused rather than read as blank accounts.
type accountList []accountRequest

func (l *accountList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if falsy(data) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(accountList, 0, len(raw))
	for i, item := range raw {
		if bytes.Equal(bytes.TrimSpace(item), jsonNull) {
			return fmt.Errorf("savingAccounts[%d] is null", i)
		}
		var acc accountRequest
		if err := json.Unmarshal(item, &acc); err != nil {
			return fmt.Errorf("savingAccounts[%d]: %w", i, err)
		}
		out = append(out, acc)
	}
	*l = out
	return nil
}

type createClientRequest struct {
	Name           text            `json:"name"`
	RutAccount     optionalAccount `json:"rutAccount"`
	SavingAccounts accountList     `json:"savingAccounts"`
}

func (r createClientRequest) input() domain.CreateClientInput {
	in := domain.CreateClientInput{Name: string(r.Name)}
	if r.RutAccount.account != nil {
		rut := r.RutAccount.account.input()
		in.RutAccount = &rut
	}
	for _, acc := range r.SavingAccounts {
		in.SavingAccounts = append(in.SavingAccounts, acc.input())
	}
	return in
}

type removedClientResponse struct {
	Removed domain.Client `json:"removed"`
}

type removedSavingResponse struct {
	Removed domain.SavingAccount `json:"removed"`
	Client  domain.Client        `json:"client"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type healthResponse struct {
	Status string `json:"status"`
	Policy string `json:"policy,omitempty"`
	Error  string `json:"error,omitempty"`
}

package authorizenet

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// ResultCodeOK is the envelope-level success marker.
const ResultCodeOK = "Ok"

// ResponseCodeApproved is the transaction-level success code.
const ResponseCodeApproved = "1"

// Message is one (code, text) pair from the response, envelope-level or
// transaction-level.
type Message struct {
	Code string
	Text string
}

// Response is the tolerantly-decoded gateway response. Fields the document
// does not contain stay empty; the decoder never fails on missing,
// reordered or extra elements.
type Response struct {
	ResultCode   string
	Messages     []Message // envelope level, in document order
	TransID      string
	AuthCode     string
	ResponseCode string
	Errors       []Message // transaction level, in document order
}

// OK reports envelope-level success.
func (r Response) OK() bool { return r.ResultCode == ResultCodeOK }

// Approved reports transaction-level success.
func (r Response) Approved() bool { return r.ResponseCode == ResponseCodeApproved }

// AllMessages concatenates envelope-level then transaction-level pairs,
// preserving document order within each level.
func (r Response) AllMessages() []Message {
	out := make([]Message, 0, len(r.Messages)+len(r.Errors))
	out = append(out, r.Messages...)
	out = append(out, r.Errors...)
	return out
}

// ParseResponse walks the XML token stream and picks out the fields the
// relay cares about, independently of each other. The gateway's document
// shape is not fully specified, so a strict unmarshal would be brittle;
// this decoder degrades to empty values instead.
func ParseResponse(body []byte) Response {
	var resp Response
	if len(body) == 0 {
		return resp
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	var path []string
	var pending Message

	inTransaction := func() bool {
		for _, name := range path {
			if name == "transactionResponse" {
				return true
			}
		}
		return false
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			// EOF, truncation or malformed markup: yield whatever was
			// extracted before the break.
			return resp
		}

		switch t := tok.(type) {
		case xml.StartElement:
			path = append(path, t.Name.Local)
			if t.Name.Local == "message" || t.Name.Local == "error" {
				pending = Message{}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "message":
				if !inTransaction() {
					resp.Messages = append(resp.Messages, pending)
				}
			case "error":
				if inTransaction() {
					resp.Errors = append(resp.Errors, pending)
				}
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		case xml.CharData:
			if len(path) == 0 {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch path[len(path)-1] {
			case "resultCode":
				if !inTransaction() && resp.ResultCode == "" {
					resp.ResultCode = text
				}
			case "code":
				pending.Code = text
			case "text":
				pending.Text = text
			case "errorCode":
				pending.Code = text
			case "errorText":
				pending.Text = text
			case "transId":
				if inTransaction() && resp.TransID == "" {
					resp.TransID = text
				}
			case "authCode":
				if inTransaction() && resp.AuthCode == "" {
					resp.AuthCode = text
				}
			case "responseCode":
				if inTransaction() && resp.ResponseCode == "" {
					resp.ResponseCode = text
				}
			}
		}
	}
}

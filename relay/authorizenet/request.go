package authorizenet

import "encoding/xml"

// The gateway validates field order against its schema, so struct field
// order here is load-bearing.

// MerchantAuthentication carries the API credentials on every request.
type MerchantAuthentication struct {
	Name           string `xml:"name"`
	TransactionKey string `xml:"transactionKey"`
}

// OpaqueData is the gateway's container for third-party-encrypted payment
// payloads. DataDescriptor identifies the encryption scheme, DataValue is
// the re-encoded token.
type OpaqueData struct {
	DataDescriptor string `xml:"dataDescriptor"`
	DataValue      string `xml:"dataValue"`
}

type Payment struct {
	OpaqueData OpaqueData `xml:"opaqueData"`
}

type Order struct {
	InvoiceNumber string `xml:"invoiceNumber,omitempty"`
	Description   string `xml:"description,omitempty"`
}

type Customer struct {
	ID    string `xml:"id,omitempty"`
	Email string `xml:"email,omitempty"`
}

type BillTo struct {
	FirstName string `xml:"firstName,omitempty"`
	LastName  string `xml:"lastName,omitempty"`
	Address   string `xml:"address,omitempty"`
	City      string `xml:"city,omitempty"`
	State     string `xml:"state,omitempty"`
	Zip       string `xml:"zip,omitempty"`
	Country   string `xml:"country,omitempty"`
}

type Transaction struct {
	TransactionType string    `xml:"transactionType"`
	Amount          string    `xml:"amount"`
	Payment         Payment   `xml:"payment"`
	Order           *Order    `xml:"order,omitempty"`
	Customer        *Customer `xml:"customer,omitempty"`
	BillTo          *BillTo   `xml:"billTo,omitempty"`
}

// TransactionRequest is the root createTransactionRequest document.
type TransactionRequest struct {
	XMLName                xml.Name               `xml:"createTransactionRequest"`
	XMLNS                  string                 `xml:"xmlns,attr"`
	MerchantAuthentication MerchantAuthentication `xml:"merchantAuthentication"`
	RefID                  string                 `xml:"refId,omitempty"`
	Transaction            Transaction            `xml:"transactionRequest"`
}

// APISchema is the namespace the gateway expects on the request root.
const APISchema = "AnetApi/xml/v1/schema/AnetApiSchema.xsd"

// TransactionTypeAuthCapture authorizes and captures in one step.
const TransactionTypeAuthCapture = "authCaptureTransaction"

// Marshal renders the request document. encoding/xml escapes every field
// value, so caller-supplied strings cannot break out of their elements.
func (r *TransactionRequest) Marshal() ([]byte, error) {
	r.XMLNS = APISchema
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

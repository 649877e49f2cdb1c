package authorizenet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionRequest_Marshal(t *testing.T) {
	req := &TransactionRequest{
		MerchantAuthentication: MerchantAuthentication{
			Name:           "login",
			TransactionKey: "key",
		},
		RefID: "ref-1",
		Transaction: Transaction{
			TransactionType: TransactionTypeAuthCapture,
			Amount:          "10.00",
			Payment: Payment{
				OpaqueData: OpaqueData{
					DataDescriptor: "COMMON.APPLE.INAPP.PAYMENT",
					DataValue:      "AB==",
				},
			},
			Order: &Order{InvoiceNumber: "INV-1", Description: "demo"},
		},
	}

	body, err := req.Marshal()
	require.NoError(t, err)

	doc := string(body)
	require.Contains(t, doc, `<createTransactionRequest xmlns="AnetApi/xml/v1/schema/AnetApiSchema.xsd">`)
	require.Contains(t, doc, "<name>login</name>")
	require.Contains(t, doc, "<transactionType>authCaptureTransaction</transactionType>")
	require.Contains(t, doc, "<amount>10.00</amount>")
	require.Contains(t, doc, "<dataValue>AB==</dataValue>")
	// The credentials block must come before the transaction block.
	require.Less(t,
		strings.Index(doc, "<merchantAuthentication>"),
		strings.Index(doc, "<transactionRequest>"))
}

func TestTransactionRequest_EscapesReservedCharacters(t *testing.T) {
	req := &TransactionRequest{
		Transaction: Transaction{
			TransactionType: TransactionTypeAuthCapture,
			Amount:          "1.00",
			Order: &Order{
				Description: `Tom & Jerry's <"special"> order`,
			},
			Customer: &Customer{ID: `<script>alert("x")</script>`},
		},
	}

	body, err := req.Marshal()
	require.NoError(t, err)

	doc := string(body)
	require.NotContains(t, doc, `<script>`)
	require.Contains(t, doc, "Tom &amp; Jerry")
	require.Contains(t, doc, "&lt;script&gt;")
}

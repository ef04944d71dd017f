package model

import "encoding/json"

// Message is one transaction message. Type selects the variant; only the fields of that variant are read.
// Amount is a coin string such as "1000000uatom" (comma separated for bank_send).
type Message struct {
	Type                string `json:"type"`
	FromAddress         string `json:"from_address,omitempty"`
	ToAddress           string `json:"to_address,omitempty"`
	DelegatorAddress    string `json:"delegator_address,omitempty"`
	ValidatorAddress    string `json:"validator_address,omitempty"`
	ValidatorSrcAddress string `json:"validator_src_address,omitempty"`
	ValidatorDstAddress string `json:"validator_dst_address,omitempty"`
	Voter               string `json:"voter,omitempty"`
	ProposalID          uint64 `json:"proposal_id,omitempty"`
	Option              string `json:"option,omitempty"`
	Amount              string `json:"amount,omitempty"`
}

// Fee is either the string "auto" (or absent) or a fixed fee object.
type Fee struct {
	GasLimit uint64 `json:"gas_limit"`
	Amount   string `json:"amount"`
	Granter  string `json:"granter,omitempty"`
	Payer    string `json:"payer,omitempty"`
}

type TxRequestBody struct {
	Sender        string          `json:"sender"`
	PubKey        []byte          `json:"pub_key,omitempty"`
	Messages      []Message       `json:"messages"`
	Fee           json.RawMessage `json:"fee,omitempty"`
	Memo          string          `json:"memo,omitempty"`
	TimeoutHeight uint64          `json:"timeout_height,omitempty"`
}

type EstimateFeeRequestBody struct {
	TxRequestBody
}

type BuildSignDocRequestBody struct {
	TxRequestBody
	Mode string `json:"mode,omitempty"`
}

// SignDoc is a sign payload in transport form. Byte fields are base64.
type SignDoc struct {
	Mode          string          `json:"mode"`
	BodyBytes     []byte          `json:"body_bytes,omitempty"`
	AuthInfoBytes []byte          `json:"auth_info_bytes,omitempty"`
	Document      json.RawMessage `json:"document,omitempty"`
	ChainID       string          `json:"chain_id"`
	AccountNumber uint64          `json:"account_number"`
	Sequence      uint64          `json:"sequence"`
	SignerAddress string          `json:"signer_address"`
	PubKey        []byte          `json:"pub_key,omitempty"`
}

// SignRequestBody selects the key by KeyIndex, or by Address when KeyIndex is absent.
type SignRequestBody struct {
	SignDoc  SignDoc `json:"sign_doc"`
	Scheme   string  `json:"scheme,omitempty"`
	KeyIndex *int    `json:"key_index,omitempty"`
	Address  string  `json:"address,omitempty"`
}

// BroadcastRequestBody carries exactly one input shape:
// tx_bytes; body_bytes + auth_info_bytes + signatures; or sign_doc + signature (+ pub_key for amino).
type BroadcastRequestBody struct {
	TxBytes       []byte   `json:"tx_bytes,omitempty"`
	BodyBytes     []byte   `json:"body_bytes,omitempty"`
	AuthInfoBytes []byte   `json:"auth_info_bytes,omitempty"`
	Signatures    [][]byte `json:"signatures,omitempty"`
	SignDoc       *SignDoc `json:"sign_doc,omitempty"`
	Signature     []byte   `json:"signature,omitempty"`
	PubKey        []byte   `json:"pub_key,omitempty"`
	Wait          bool     `json:"wait,omitempty"`
}

type MakeTxRequestBody struct {
	TxRequestBody
	Mode string `json:"mode,omitempty"`
}

type TxResultRequestBody struct {
	TxHash string `json:"tx_hash"`
}

type AddressRequestBody struct {
	Address string `json:"address"`
}

package rpc

// Well-known Solana program IDs used for account classification.
const (
	SystemProgramID    = "11111111111111111111111111111111"
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// accountInfoResult mirrors the getAccountInfo response envelope.
type accountInfoResult struct {
	Value *accountInfo `json:"value"`
}

type accountInfo struct {
	Owner      string `json:"owner"`
	Lamports   uint64 `json:"lamports"`
	Executable bool   `json:"executable"`
}

// SignatureInfo is one entry from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Err       any    `json:"err"`
	Memo      *string `json:"memo"`
}

package electrum

// historyEntry is the implementation of the ports' TxHistory interface
type historyEntry struct {
	TxHash string `json:"tx_hash"`
	Height int64  `json:"height"`
}

func (h historyEntry) GetTxid() string {
	return h.TxHash
}

func (h historyEntry) GetHeight() int64 {
	return h.Height
}

// balance is the implementation of the ports' Balance interface
type balance struct {
	Confirmed   uint64 `json:"confirmed"`
	Unconfirmed int64  `json:"unconfirmed"`
}

func (b balance) GetConfirmedBalance() uint64 {
	return b.Confirmed
}

func (b balance) GetUnconfirmedBalance() int64 {
	return b.Unconfirmed
}

func (b balance) GetTotalBalance() int64 {
	return int64(b.Confirmed) + b.Unconfirmed
}

type blockHeader struct {
	Height uint32 `json:"height"`
	Hex    string `json:"hex"`
}

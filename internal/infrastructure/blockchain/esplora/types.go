package esplora

type txStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
}

// tx is the implementation of the ports' TxHistory interface
type tx struct {
	TxID   string   `json:"txid"`
	Status txStatus `json:"status"`
}

func (t tx) GetTxid() string {
	return t.TxID
}

func (t tx) GetHeight() int64 {
	if !t.Status.Confirmed {
		return 0
	}
	return t.Status.BlockHeight
}

type txoStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
}

type scriptHashStats struct {
	ChainStats   txoStats `json:"chain_stats"`
	MempoolStats txoStats `json:"mempool_stats"`
}

// balance is the implementation of the ports' Balance interface
type balance struct {
	confirmed   uint64
	unconfirmed int64
}

func (b balance) GetConfirmedBalance() uint64 {
	return b.confirmed
}

func (b balance) GetUnconfirmedBalance() int64 {
	return b.unconfirmed
}

func (b balance) GetTotalBalance() int64 {
	return int64(b.confirmed) + b.unconfirmed
}

package ports

type Balance interface {
	GetConfirmedBalance() uint64
	// Negative when unconfirmed txs spend more than they receive.
	GetUnconfirmedBalance() int64
	GetTotalBalance() int64
}

type TxHistory interface {
	GetTxid() string
	// Zero or negative for unconfirmed txs.
	GetHeight() int64
}

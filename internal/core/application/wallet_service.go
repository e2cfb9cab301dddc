package application

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/tdex-network/descwallet/internal/core/ports"
	"github.com/tdex-network/descwallet/pkg/address"
	"github.com/tdex-network/descwallet/pkg/bip32"
	"github.com/tdex-network/descwallet/pkg/descriptor"
	"github.com/tdex-network/descwallet/pkg/network"
	"github.com/tdex-network/descwallet/pkg/script"
	"github.com/tdex-network/descwallet/pkg/stats"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultStopGap = 20
	// Max number of concurrent requests to the blockchain service.
	maxConcurrentRequests = 8
)

type WalletService interface {
	// GetNewAddress reveals the next external address.
	GetNewAddress(ctx context.Context) (AddressInfo, error)
	// GetNewChangeAddress reveals the next internal address, or the next
	// external one if the wallet has no change descriptor.
	GetNewChangeAddress(ctx context.Context) (AddressInfo, error)
	// PeekAddress derives the address at the given index without revealing
	// it.
	PeekAddress(
		ctx context.Context, keychain descriptor.Keychain, index uint32,
	) (AddressInfo, error)
	ListAddresses(
		ctx context.Context, keychain descriptor.Keychain,
	) ([]AddressInfo, error)
	// Sync scans the blockchain for used addresses with a stop gap policy
	// and caches the wallet history.
	Sync(ctx context.Context) (*SyncResult, error)
	GetBalance(ctx context.Context) (*BalanceInfo, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	Broadcast(ctx context.Context, txHex string) (string, error)
	Info(ctx context.Context) (*WalletInfo, error)
}

// WalletServiceArgs holds the arguments to create a WalletService. The
// blockchain service is optional, without it the wallet works offline.
type WalletServiceArgs struct {
	Descriptor       string
	ChangeDescriptor string
	Network          string
	StopGap          uint64
	RepoManager      ports.RepoManager
	Blockchain       ports.BlockchainService
}

type walletService struct {
	walletID    string
	net         network.Network
	external    *descriptor.Descriptor
	internal    *descriptor.Descriptor
	stopGap     uint32
	repoManager ports.RepoManager
	blockchain  ports.BlockchainService

	syncing int32
}

// NewWalletService parses and checks the given descriptors, then loads the
// related wallet from the repository, creating it if not found.
func NewWalletService(args WalletServiceArgs) (WalletService, error) {
	if args.RepoManager == nil {
		return nil, ErrMissingRepoManager
	}

	net, err := network.Parse(args.Network)
	if err != nil {
		return nil, err
	}

	external, err := parseDescriptor(args.Descriptor, net)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}

	var internal *descriptor.Descriptor
	if len(args.ChangeDescriptor) > 0 {
		internal, err = parseDescriptor(args.ChangeDescriptor, net)
		if err != nil {
			return nil, fmt.Errorf("change descriptor: %w", err)
		}
	}

	stopGap := args.StopGap
	if stopGap == 0 {
		stopGap = DefaultStopGap
	}
	if stopGap > uint64(bip32.MaxIndex) {
		stopGap = uint64(bip32.MaxIndex)
	}

	svc := &walletService{
		walletID:    makeWalletID(external, internal),
		net:         net,
		external:    external,
		internal:    internal,
		stopGap:     uint32(stopGap),
		repoManager: args.RepoManager,
		blockchain:  args.Blockchain,
	}

	if err := svc.loadWallet(context.Background()); err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *walletService) GetNewAddress(ctx context.Context) (AddressInfo, error) {
	return s.revealNextAddress(ctx, descriptor.KeychainExternal)
}

func (s *walletService) GetNewChangeAddress(
	ctx context.Context,
) (AddressInfo, error) {
	return s.revealNextAddress(ctx, descriptor.KeychainInternal)
}

func (s *walletService) PeekAddress(
	_ context.Context, keychain descriptor.Keychain, index uint32,
) (AddressInfo, error) {
	keychain, desc := s.resolveKeychain(keychain)

	addr, err := s.deriveAddress(desc, keychain, index)
	if err != nil {
		return AddressInfo{}, err
	}
	return addressInfoFromDomain(addr, derivationPath(desc, index)), nil
}

func (s *walletService) ListAddresses(
	ctx context.Context, keychain descriptor.Keychain,
) ([]AddressInfo, error) {
	keychain, desc := s.resolveKeychain(keychain)

	w, err := s.repoManager.WalletRepository().GetWallet(ctx, s.walletID)
	if err != nil {
		return nil, err
	}

	addresses := w.AddressesByKeychain(keychain)
	info := make([]AddressInfo, 0, len(addresses))
	for _, addr := range addresses {
		info = append(info, addressInfoFromDomain(
			addr, derivationPath(desc, addr.Index),
		))
	}
	return info, nil
}

func (s *walletService) Sync(ctx context.Context) (*SyncResult, error) {
	if s.blockchain == nil {
		return nil, ErrBlockchainNotConfigured
	}
	if !atomic.CompareAndSwapInt32(&s.syncing, 0, 1) {
		return nil, ErrSyncInProgress
	}
	defer atomic.StoreInt32(&s.syncing, 0)

	start := time.Now()
	result, numScripts, err := s.sync(ctx)
	stats.ObserveSync(start, numScripts, err)
	if err != nil {
		log.WithError(err).Warnf("sync of wallet %s failed", s.walletID)
		return nil, err
	}

	log.Infof(
		"synced wallet %s at height %d: %d scripts scanned, %d txs (%d new)",
		s.walletID, result.BlockHeight, numScripts, result.NumTxs,
		result.NumNewTxs,
	)
	return result, nil
}

func (s *walletService) GetBalance(ctx context.Context) (*BalanceInfo, error) {
	if s.blockchain == nil {
		return nil, ErrBlockchainNotConfigured
	}

	w, err := s.repoManager.WalletRepository().GetWallet(ctx, s.walletID)
	if err != nil {
		return nil, err
	}

	scripts := make([]script.OutputScript, 0, len(w.Addresses))
	for _, addr := range w.Addresses {
		outputScript, err := script.NewOutputScriptFromHex(addr.Script)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, outputScript)
	}

	balance, err := s.getBalance(ctx, scripts)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *walletService) ListTransactions(
	ctx context.Context,
) ([]domain.Transaction, error) {
	return s.repoManager.TransactionRepository().ListTransactions(
		ctx, s.walletID,
	)
}

func (s *walletService) Broadcast(
	ctx context.Context, txHex string,
) (string, error) {
	if s.blockchain == nil {
		return "", ErrBlockchainNotConfigured
	}

	buf, err := hex.DecodeString(txHex)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}
	reader := bytes.NewReader(buf)
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(reader); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}
	if reader.Len() > 0 {
		return "", fmt.Errorf("%w: unexpected trailing bytes", ErrInvalidTransaction)
	}

	txid, err := s.blockchain.BroadcastTransaction(ctx, txHex)
	if err != nil {
		return "", err
	}
	if expected := tx.TxHash().String(); txid != expected {
		log.Warnf(
			"broadcast returned txid %s, expected %s", txid, expected,
		)
	}
	return txid, nil
}

func (s *walletService) Info(ctx context.Context) (*WalletInfo, error) {
	w, err := s.repoManager.WalletRepository().GetWallet(ctx, s.walletID)
	if err != nil {
		return nil, err
	}

	return &WalletInfo{
		ID:                w.ID,
		Network:           w.Network,
		Descriptor:        w.ExternalDescriptor,
		ChangeDescriptor:  w.InternalDescriptor,
		IsRange:           s.external.IsRange(),
		NextExternalIndex: w.NextExternalIndex,
		NextInternalIndex: w.NextInternalIndex,
		NumAddresses:      len(w.Addresses),
		LastSyncedHeight:  w.LastSyncedHeight,
	}, nil
}

func (s *walletService) loadWallet(ctx context.Context) error {
	repo := s.repoManager.WalletRepository()

	w, err := repo.GetWallet(ctx, s.walletID)
	if err == nil {
		if w.Network != s.net.String() {
			return fmt.Errorf(
				"%w: wallet %s belongs to %s", ErrWalletNetworkMismatch,
				s.walletID, w.Network,
			)
		}
		log.Debugf("loaded wallet %s", s.walletID)
		return nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return err
	}

	w, err = domain.NewWallet(
		s.walletID, publicDescriptor(s.external), publicDescriptor(s.internal),
		s.net.String(),
	)
	if err != nil {
		return err
	}
	if err := repo.AddWallet(ctx, w); err != nil {
		if errors.Is(err, domain.ErrWalletAlreadyExists) {
			return nil
		}
		return err
	}

	log.Infof("created wallet %s", s.walletID)
	return nil
}

func (s *walletService) revealNextAddress(
	ctx context.Context, keychain descriptor.Keychain,
) (AddressInfo, error) {
	keychain, desc := s.resolveKeychain(keychain)

	var addr domain.Address
	isNew := false
	if err := s.repoManager.WalletRepository().UpdateWallet(
		ctx, s.walletID, func(w *domain.Wallet) (*domain.Wallet, error) {
			// A non-range descriptor always yields the address at index 0.
			index := uint32(0)
			if desc.IsRange() {
				index = w.NextIndex(keychain)
			}
			if a, ok := w.GetAddress(keychain, index); ok {
				addr = a
				return w, nil
			}

			a, err := s.deriveAddress(desc, keychain, index)
			if err != nil {
				return nil, err
			}
			if err := w.RevealAddress(a); err != nil {
				return nil, err
			}
			addr = a
			isNew = true
			return w, nil
		},
	); err != nil {
		return AddressInfo{}, err
	}

	if isNew {
		stats.AddRevealedAddress(keychain.String())
		log.Debugf(
			"revealed %s address %d for wallet %s", keychain, addr.Index, s.walletID,
		)
	}
	return addressInfoFromDomain(addr, derivationPath(desc, addr.Index)), nil
}

func (s *walletService) resolveKeychain(
	keychain descriptor.Keychain,
) (descriptor.Keychain, *descriptor.Descriptor) {
	if keychain == descriptor.KeychainInternal && s.internal != nil {
		return descriptor.KeychainInternal, s.internal
	}
	return descriptor.KeychainExternal, s.external
}

func (s *walletService) deriveAddress(
	desc *descriptor.Descriptor, keychain descriptor.Keychain, index uint32,
) (domain.Address, error) {
	outputScript, err := desc.Derive(s.net, index)
	if err != nil {
		return domain.Address{}, err
	}
	addr, err := address.Encode(outputScript, s.net)
	if err != nil {
		return domain.Address{}, err
	}

	return domain.Address{
		Keychain: keychain,
		Index:    index,
		Address:  addr,
		Script:   outputScript.Hex(),
	}, nil
}

// parseDescriptor parses the given descriptor and derives its first script
// so that any derivation error is surfaced immediately.
func parseDescriptor(
	text string, net network.Network,
) (*descriptor.Descriptor, error) {
	desc, err := descriptor.Parse(text)
	if err != nil {
		return nil, err
	}
	if err := desc.CheckNetwork(net); err != nil {
		return nil, err
	}
	if _, err := desc.Derive(net, 0); err != nil {
		return nil, err
	}
	return desc, nil
}

func makeWalletID(external, internal *descriptor.Descriptor) string {
	if internal == nil {
		return external.Checksum()
	}
	return fmt.Sprintf("%s-%s", external.Checksum(), internal.Checksum())
}

func publicDescriptor(desc *descriptor.Descriptor) string {
	if desc == nil {
		return ""
	}
	str, _ := descriptor.AddChecksum(desc.PublicString())
	return str
}

// derivationPath returns the full path from the master key of a single-key
// descriptor. It is empty if the path can't be determined.
func derivationPath(desc *descriptor.Descriptor, index uint32) string {
	key := desc.Key
	if key == nil || key.Kind != descriptor.KeyExtended {
		return ""
	}

	path := bip32.DerivationPath{}
	if key.Origin != nil {
		path = key.Origin.Path
	} else if key.ExtendedKey.Depth() > 0 {
		return ""
	}

	path = path.Append(key.Path...)
	switch key.Wildcard {
	case descriptor.WildcardNormal:
		path = path.Append(bip32.Normal(index))
	case descriptor.WildcardHardened:
		path = path.Append(bip32.Hardened(index))
	}
	return path.String()
}

func (s *walletService) getBalance(
	ctx context.Context, scripts []script.OutputScript,
) (BalanceInfo, error) {
	balances := make([]ports.Balance, len(scripts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentRequests)
	for i := range scripts {
		i := i
		eg.Go(func() error {
			balance, err := s.blockchain.GetBalance(egCtx, scripts[i])
			if err != nil {
				return err
			}
			balances[i] = balance
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return BalanceInfo{}, err
	}

	total := BalanceInfo{}
	for _, b := range balances {
		total.ConfirmedBalance += b.GetConfirmedBalance()
		total.UnconfirmedBalance += b.GetUnconfirmedBalance()
	}
	return total, nil
}

type keychainScan struct {
	keychain  descriptor.Keychain
	addresses []domain.Address
	scripts   []script.OutputScript
	// History of every used index.
	history  map[uint32][]ports.TxHistory
	lastUsed *uint32
}

func (s *walletService) sync(ctx context.Context) (*SyncResult, int, error) {
	height, err := s.blockchain.GetBlockHeight(ctx)
	if err != nil {
		return nil, 0, err
	}

	w, err := s.repoManager.WalletRepository().GetWallet(ctx, s.walletID)
	if err != nil {
		return nil, 0, err
	}

	keychains := []descriptor.Keychain{descriptor.KeychainExternal}
	if s.internal != nil {
		keychains = append(keychains, descriptor.KeychainInternal)
	}

	result := &SyncResult{BlockHeight: height}
	scans := make([]*keychainScan, 0, len(keychains))
	numScripts := 0
	for _, keychain := range keychains {
		scan, err := s.scanKeychain(ctx, keychain, w.NextIndex(keychain))
		if err != nil {
			return nil, numScripts, err
		}
		numScripts += len(scan.scripts)
		scans = append(scans, scan)

		if keychain == descriptor.KeychainInternal {
			result.LastUsedInternal = scan.lastUsed
		} else {
			result.LastUsedExternal = scan.lastUsed
		}
	}

	txsByID := make(map[string]*domain.Transaction)
	txids := make([]string, 0)
	usedScripts := make([]script.OutputScript, 0)
	for _, scan := range scans {
		for i, outputScript := range scan.scripts {
			history, ok := scan.history[uint32(i)]
			if !ok {
				continue
			}
			usedScripts = append(usedScripts, outputScript)
			scriptHex := outputScript.Hex()
			for _, h := range history {
				if tx, ok := txsByID[h.GetTxid()]; ok {
					tx.Merge(domain.Transaction{
						Height:  h.GetHeight(),
						Scripts: []string{scriptHex},
					})
					continue
				}
				tx, err := domain.NewTransaction(
					s.walletID, h.GetTxid(), h.GetHeight(), scriptHex,
				)
				if err != nil {
					return nil, numScripts, err
				}
				txsByID[tx.TxID] = tx
				txids = append(txids, tx.TxID)
			}
		}
	}

	balance, err := s.getBalance(ctx, usedScripts)
	if err != nil {
		return nil, numScripts, err
	}
	result.Balance = balance

	revealed := make(map[descriptor.Keychain]int)
	if err := s.repoManager.WalletRepository().UpdateWallet(
		ctx, s.walletID, func(w *domain.Wallet) (*domain.Wallet, error) {
			for k := range revealed {
				delete(revealed, k)
			}
			for _, scan := range scans {
				if scan.lastUsed == nil {
					continue
				}
				for i := uint32(0); i <= *scan.lastUsed; i++ {
					if _, ok := w.GetAddress(scan.keychain, i); ok {
						continue
					}
					if err := w.RevealAddress(scan.addresses[i]); err != nil {
						return nil, err
					}
					revealed[scan.keychain]++
				}
			}
			w.SetSynced(height)
			return w, nil
		},
	); err != nil {
		return nil, numScripts, err
	}
	for keychain, count := range revealed {
		for i := 0; i < count; i++ {
			stats.AddRevealedAddress(keychain.String())
		}
	}

	txs := make([]domain.Transaction, 0, len(txids))
	for _, txid := range txids {
		txs = append(txs, *txsByID[txid])
	}
	numNewTxs, err := s.repoManager.TransactionRepository().AddTransactions(
		ctx, txs...,
	)
	if err != nil {
		return nil, numScripts, err
	}
	result.NumTxs = len(txs)
	result.NumNewTxs = numNewTxs

	return result, numScripts, nil
}

// scanKeychain fetches the history of the keychain scripts in batches of
// stop gap size. The scan stops once all revealed indexes have been checked
// and at least stop gap consecutive unused scripts follow the last used one.
func (s *walletService) scanKeychain(
	ctx context.Context, keychain descriptor.Keychain, nextIndex uint32,
) (*keychainScan, error) {
	_, desc := s.resolveKeychain(keychain)

	scan := &keychainScan{
		keychain: keychain,
		history:  make(map[uint32][]ports.TxHistory),
	}

	batchSize := s.stopGap
	if !desc.IsRange() {
		batchSize = 1
	}

	lastUsed := int64(-1)
	for from := uint32(0); ; from += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := make([]domain.Address, 0, batchSize)
		scripts := make([]script.OutputScript, 0, batchSize)
		for i := from; i < from+batchSize; i++ {
			outputScript, err := desc.Derive(s.net, i)
			if err != nil {
				return nil, err
			}
			addr, err := address.Encode(outputScript, s.net)
			if err != nil {
				return nil, err
			}
			batch = append(batch, domain.Address{
				Keychain: keychain,
				Index:    i,
				Address:  addr,
				Script:   outputScript.Hex(),
			})
			scripts = append(scripts, outputScript)
		}

		histories := make([][]ports.TxHistory, len(scripts))
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(maxConcurrentRequests)
		for i := range scripts {
			i := i
			eg.Go(func() error {
				history, err := s.blockchain.GetHistory(egCtx, scripts[i])
				if err != nil {
					return err
				}
				histories[i] = history
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		for i, history := range histories {
			if len(history) <= 0 {
				continue
			}
			index := from + uint32(i)
			scan.history[index] = history
			lastUsed = int64(index)
		}
		scan.addresses = append(scan.addresses, batch...)
		scan.scripts = append(scan.scripts, scripts...)

		if !desc.IsRange() {
			break
		}
		end := int64(from) + int64(batchSize)
		if end >= int64(nextIndex) && end-(lastUsed+1) >= int64(s.stopGap) {
			break
		}
		log.Debugf(
			"scanning next %d %s scripts of wallet %s",
			batchSize, keychain, s.walletID,
		)
	}

	if lastUsed >= 0 {
		index := uint32(lastUsed)
		scan.lastUsed = &index
	}
	return scan, nil
}

package signer

import (
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/cosmos/cosmos-sdk/types"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

const DefaultHDPath = "m/44'/118'/0'/0/0"

// KeyHandle points at a key by its import order.
type KeyHandle struct {
	Index int
}

// Keystore holds private keys in an in-memory keyring. Key material never leaves the keyring:
// callers sign through a Session.
type Keystore struct {
	kring keyring.Keyring

	mu        sync.RWMutex
	uids      []string
	addresses []string

	log *zap.Logger
}

func NewKeystore(cdc codec.Codec, log *zap.Logger) *Keystore {
	return &Keystore{
		kring: keyring.NewInMemory(cdc),
		log:   log,
	}
}

// ImportArmored adds an ASCII armored, passphrase encrypted private key.
func (k *Keystore) ImportArmored(armor, passphrase string) (KeyHandle, error) {
	uid := uuid.New().String()
	if err := k.kring.ImportPrivKey(uid, armor, passphrase); err != nil {
		return KeyHandle{}, errorsmod.Wrapf(txerrors.ErrConfig, "import key: %s", err)
	}
	return k.register(uid)
}

// ImportMnemonic derives a secp256k1 key from a mnemonic along hdPath.
func (k *Keystore) ImportMnemonic(mnemonic, hdPath string) (KeyHandle, error) {
	if hdPath == "" {
		hdPath = DefaultHDPath
	}

	uid := uuid.New().String()
	if _, err := k.kring.NewAccount(uid, mnemonic, "", hdPath, hd.Secp256k1); err != nil {
		return KeyHandle{}, errorsmod.Wrapf(txerrors.ErrConfig, "import mnemonic: %s", err)
	}
	return k.register(uid)
}

func (k *Keystore) register(uid string) (KeyHandle, error) {
	record, err := k.kring.Key(uid)
	if err != nil {
		return KeyHandle{}, errorsmod.Wrap(txerrors.ErrKeyNotFound, err.Error())
	}
	address, err := record.GetAddress()
	if err != nil {
		return KeyHandle{}, errorsmod.Wrap(txerrors.ErrKeyNotFound, err.Error())
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.uids = append(k.uids, uid)
	k.addresses = append(k.addresses, address.String())
	handle := KeyHandle{Index: len(k.uids) - 1}

	k.log.Info("key imported", zap.Int("index", handle.Index), zap.String("address", address.String()))

	return handle, nil
}

func (k *Keystore) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.uids)
}

// Addresses lists key addresses by index.
func (k *Keystore) Addresses() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]string(nil), k.addresses...)
}

// Find returns the handle of the key for address.
func (k *Keystore) Find(address string) (KeyHandle, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for i, a := range k.addresses {
		if a == address {
			return KeyHandle{Index: i}, nil
		}
	}
	return KeyHandle{}, errorsmod.Wrapf(txerrors.ErrKeyNotFound, "no key for %s", address)
}

// Acquire opens a signing session for the key. The session must be released after use.
func (k *Keystore) Acquire(handle KeyHandle) (*Session, error) {
	k.mu.RLock()
	if handle.Index < 0 || handle.Index >= len(k.uids) {
		k.mu.RUnlock()
		return nil, errorsmod.Wrapf(txerrors.ErrKeyNotFound, "key index %d", handle.Index)
	}
	uid := k.uids[handle.Index]
	k.mu.RUnlock()

	record, err := k.kring.Key(uid)
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrKeyNotFound, err.Error())
	}
	address, err := record.GetAddress()
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrKeyNotFound, err.Error())
	}
	pubKey, err := record.GetPubKey()
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrKeyNotFound, err.Error())
	}

	return &Session{
		kring:   k.kring,
		uid:     uid,
		address: address,
		pubKey:  pubKey,
	}, nil
}

// Session is a scoped signing capability for one key.
type Session struct {
	kring   keyring.Keyring
	uid     string
	address types.AccAddress
	pubKey  cryptotypes.PubKey

	mu       sync.Mutex
	released bool
}

func (s *Session) Address() string {
	return s.address.String()
}

func (s *Session) PubKey() cryptotypes.PubKey {
	return s.pubKey
}

// Sign signs msg with the session key. It fails once the session is released.
func (s *Session) Sign(msg []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, errorsmod.Wrap(txerrors.ErrKeyNotFound, "signing session released")
	}

	sig, _, err := s.kring.Sign(s.uid, msg)
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrKeyNotFound, err.Error())
	}
	return sig, nil
}

func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true
	s.kring = nil
}

package simse

import (
	"crypto/aes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aead/cmac"
	"github.com/backkem/uwb/pkg/iso7816"
	"golang.org/x/crypto/hkdf"
)

// Sizes of the key agreement values.
const (
	ChallengeSize  = 16
	CryptogramSize = 16
	KeySize        = 16
)

const (
	labelResponder byte = 0x01
	labelInitiator byte = 0x02
)

// kdfInfo is the HKDF info string for secure channel keys.
var kdfInfo = []byte("FiRa secure channel")

// RDS tags.
const (
	TagRDSSessionID  iso7816.Tag = 0xC0
	TagRDSSessionKey iso7816.Tag = 0xC1
)

// sessionKeys are derived from the ADF base key and both challenges.
type sessionKeys struct {
	mac        []byte
	sessionKey []byte
	sessionID  uint32
}

func deriveKeys(baseKey, rI, rR []byte) (*sessionKeys, error) {
	salt := make([]byte, 0, len(rI)+len(rR))
	salt = append(salt, rI...)
	salt = append(salt, rR...)

	out := make([]byte, 2*KeySize+4)
	if _, err := io.ReadFull(hkdf.New(sha256.New, baseKey, salt, kdfInfo), out); err != nil {
		return nil, err
	}
	return &sessionKeys{
		mac:        out[:KeySize],
		sessionKey: out[KeySize : 2*KeySize],
		sessionID:  binary.BigEndian.Uint32(out[2*KeySize:]),
	}, nil
}

// cryptogram is AES-CMAC(mac, label || rI || rR).
func (k *sessionKeys) cryptogram(label byte, rI, rR []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.mac)
	if err != nil {
		return nil, err
	}
	mac, err := cmac.New(block)
	if err != nil {
		return nil, err
	}
	mac.Write([]byte{label})
	mac.Write(rI)
	mac.Write(rR)
	return mac.Sum(nil)[:CryptogramSize], nil
}

func (k *sessionKeys) verify(label byte, rI, rR, got []byte) bool {
	want, err := k.cryptogram(label, rI, rR)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

// rds encodes the ranging data set reported to the host.
func (k *sessionKeys) rds() []byte {
	id := make([]byte, 4)
	binary.BigEndian.PutUint32(id, k.sessionID)
	out := iso7816.NewDatum(TagRDSSessionID, id).Bytes()
	return append(out, iso7816.NewDatum(TagRDSSessionKey, k.sessionKey).Bytes()...)
}

// RDS is the ranging data set the applet reports once the secure channel
// is established.
type RDS struct {
	SessionID  uint32
	SessionKey []byte
}

// ParseRDS decodes the data of an RDS available notification.
func ParseRDS(b []byte) (*RDS, error) {
	objs, err := iso7816.ParseData(b)
	if err != nil {
		return nil, err
	}
	id, ok := iso7816.Find(objs, TagRDSSessionID)
	if !ok || len(id.Value) != 4 {
		return nil, fmt.Errorf("%w: session ID", ErrInvalidRDS)
	}
	key, ok := iso7816.Find(objs, TagRDSSessionKey)
	if !ok || len(key.Value) != KeySize {
		return nil, fmt.Errorf("%w: session key", ErrInvalidRDS)
	}
	return &RDS{
		SessionID:  binary.BigEndian.Uint32(id.Value),
		SessionKey: key.Value,
	}, nil
}

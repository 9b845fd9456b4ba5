package meeting

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ErrInvalidSecret is returned when the Zego server secret is not 32 bytes.
var ErrInvalidSecret = errors.New("meeting: zego server secret must be 32 bytes")

type zegoPayload struct {
	AppID   uint32 `json:"app_id"`
	UserID  string `json:"user_id"`
	Nonce   int32  `json:"nonce"`
	CTime   int64  `json:"ctime"`
	Expire  int64  `json:"expire"`
	Payload string `json:"payload"`
}

// ZegoToken04 issues a ZegoCloud "04" token for userID valid for ttl.
func ZegoToken04(appID uint32, userID, secret string, ttl time.Duration, now time.Time) (string, error) {
	if appID == 0 {
		return "", fmt.Errorf("%w: zego app id", ErrMissingCredentials)
	}
	if userID == "" {
		return "", errors.New("meeting: zego user id is empty")
	}
	if len(secret) != 32 {
		return "", ErrInvalidSecret
	}

	nonce, err := rand.Int(rand.Reader, big.NewInt(1<<31-1))
	if err != nil {
		return "", fmt.Errorf("meeting: nonce: %w", err)
	}
	ctime := now.Unix()
	expire := ctime + int64(ttl/time.Second)

	plain, err := json.Marshal(zegoPayload{
		AppID:  appID,
		UserID: userID,
		Nonce:  int32(nonce.Int64()),
		CTime:  ctime,
		Expire: expire,
	})
	if err != nil {
		return "", fmt.Errorf("meeting: encode zego payload: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("meeting: iv: %w", err)
	}
	block, err := aes.NewCipher([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("meeting: cipher: %w", err)
	}
	padded := pkcs7Pad(plain, aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, expire)
	binary.Write(&buf, binary.BigEndian, uint16(len(iv)))
	buf.Write(iv)
	binary.Write(&buf, binary.BigEndian, uint16(len(encrypted)))
	buf.Write(encrypted)

	return "04" + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func pkcs7Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

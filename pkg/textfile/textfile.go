// Package textfile reads and writes whole UTF-8 text files.
//
// Plain files are stored byte for byte: no line-ending normalization and no
// BOM handling. A file may optionally be sealed in an envelope that compresses
// and/or encrypts the text; Load detects the envelope by its magic prefix.
package textfile

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	sealMagic       = "NOTEPAD\x00SEALED"
	sealVersionV1   = uint16(1)
	sealFlagComp    = uint16(1 << 0)
	sealFlagEnc     = uint16(1 << 1)
	sealSaltSize    = 16
	sealNonceSize   = 12
	kdfIterations   = 200000
	defaultFileMode = 0o644
)

// Sealed header layout: magic, version, flags, salt, nonce, payload length.
const (
	offVersion     = len(sealMagic)
	offFlags       = offVersion + 2
	offSalt        = offFlags + 2
	offNonce       = offSalt + sealSaltSize
	offPayloadLen  = offNonce + sealNonceSize
	sealHeaderSize = offPayloadLen + 8
)

type EncryptionOptions struct {
	Enabled  bool
	Password string
}

type SaveOptions struct {
	Compression bool
	Encryption  EncryptionOptions
}

type LoadOptions struct {
	Password string
}

// Sealed reports whether saving with these options produces an envelope.
func (o SaveOptions) Sealed() bool {
	return o.Compression || o.Encryption.Enabled
}

type EnvelopeInfo struct {
	Sealed     bool
	Compressed bool
	Encrypted  bool
	Version    uint16
}

var (
	ErrInvalidEncoding  = errors.New("textfile: content is not valid UTF-8")
	ErrUnsupportedVer   = errors.New("textfile: unsupported envelope version")
	ErrInvalidEnvelope  = errors.New("textfile: invalid sealed file")
	ErrPasswordRequired = errors.New("textfile: password required")
	ErrInvalidPassword  = errors.New("textfile: invalid password")
)

func Load(path string) (string, error) {
	return LoadWithOptions(path, LoadOptions{})
}

func LoadWithOptions(path string, opts LoadOptions) (string, error) {
	text, _, err := ReadFile(path, opts)
	return text, err
}

// ReadFile loads path and also reports the envelope the text was stored in,
// so a later save can keep the same settings. Errors from reading the file
// are returned unwrapped.
func ReadFile(path string, opts LoadOptions) (string, EnvelopeInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", EnvelopeInfo{}, err
	}
	return Unpack(b, opts)
}

// Decode unwraps a sealed payload when present and validates it as UTF-8.
func Decode(b []byte, opts LoadOptions) (string, error) {
	text, _, err := Unpack(b, opts)
	return text, err
}

// Unpack is Decode that also returns the envelope settings of b.
func Unpack(b []byte, opts LoadOptions) (string, EnvelopeInfo, error) {
	var info EnvelopeInfo
	if isSealed(b) {
		h, err := parseHeader(b)
		if err != nil {
			return "", EnvelopeInfo{}, err
		}
		if b, err = openEnvelope(h, b[sealHeaderSize:], opts); err != nil {
			return "", EnvelopeInfo{}, err
		}
		info = h.info()
	}
	if _, _, err := transform.Bytes(encoding.UTF8Validator, b); err != nil {
		return "", EnvelopeInfo{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return string(b), info, nil
}

func Save(path, text string) error {
	return SaveWithOptions(path, text, SaveOptions{})
}

// SaveWithOptions writes text to path through a temporary file that is renamed
// into place, so a failed write never truncates an existing file.
func SaveWithOptions(path, text string, opts SaveOptions) error {
	blob, err := Encode(text, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, defaultFileMode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Encode returns the on-disk bytes for text.
func Encode(text string, opts SaveOptions) ([]byte, error) {
	blob := []byte(text)
	if !opts.Sealed() {
		return blob, nil
	}
	if opts.Encryption.Enabled && strings.TrimSpace(opts.Encryption.Password) == "" {
		return nil, ErrPasswordRequired
	}
	if opts.Compression {
		var err error
		blob, err = deflate(blob)
		if err != nil {
			return nil, err
		}
	}
	return sealEnvelope(blob, opts)
}

func InspectEnvelope(path string) (EnvelopeInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return Inspect(b)
}

// Inspect reports the envelope settings of raw file bytes. Plain text yields
// the zero EnvelopeInfo.
func Inspect(b []byte) (EnvelopeInfo, error) {
	if !isSealed(b) {
		return EnvelopeInfo{}, nil
	}
	h, err := parseHeader(b)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return h.info(), nil
}

func isSealed(b []byte) bool {
	return bytes.HasPrefix(b, []byte(sealMagic))
}

type header struct {
	version    uint16
	flags      uint16
	salt       [sealSaltSize]byte
	nonce      [sealNonceSize]byte
	payloadLen uint64
}

func parseHeader(b []byte) (header, error) {
	if len(b) < sealHeaderSize {
		return header{}, ErrInvalidEnvelope
	}
	h := header{
		version:    binary.LittleEndian.Uint16(b[offVersion:]),
		flags:      binary.LittleEndian.Uint16(b[offFlags:]),
		payloadLen: binary.LittleEndian.Uint64(b[offPayloadLen:]),
	}
	if h.version != sealVersionV1 {
		return header{}, fmt.Errorf("%w: %d", ErrUnsupportedVer, h.version)
	}
	copy(h.salt[:], b[offSalt:offNonce])
	copy(h.nonce[:], b[offNonce:offPayloadLen])
	return h, nil
}

func (h header) appendTo(out []byte) []byte {
	out = append(out, sealMagic...)
	out = binary.LittleEndian.AppendUint16(out, h.version)
	out = binary.LittleEndian.AppendUint16(out, h.flags)
	out = append(out, h.salt[:]...)
	out = append(out, h.nonce[:]...)
	return binary.LittleEndian.AppendUint64(out, h.payloadLen)
}

func (h header) info() EnvelopeInfo {
	return EnvelopeInfo{
		Sealed:     true,
		Compressed: h.flags&sealFlagComp != 0,
		Encrypted:  h.flags&sealFlagEnc != 0,
		Version:    h.version,
	}
}

func deriveGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func sealEnvelope(payload []byte, opts SaveOptions) ([]byte, error) {
	h := header{version: sealVersionV1}
	if opts.Compression {
		h.flags |= sealFlagComp
	}
	if opts.Encryption.Enabled {
		h.flags |= sealFlagEnc
		if _, err := io.ReadFull(rand.Reader, h.salt[:]); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rand.Reader, h.nonce[:]); err != nil {
			return nil, err
		}
		gcm, err := deriveGCM(opts.Encryption.Password, h.salt[:])
		if err != nil {
			return nil, err
		}
		payload = gcm.Seal(nil, h.nonce[:], payload, nil)
	}
	h.payloadLen = uint64(len(payload))

	out := h.appendTo(make([]byte, 0, sealHeaderSize+len(payload)))
	return append(out, payload...), nil
}

// openEnvelope decrypts and decompresses the payload that follows h.
func openEnvelope(h header, payload []byte, opts LoadOptions) ([]byte, error) {
	if uint64(len(payload)) != h.payloadLen {
		return nil, ErrInvalidEnvelope
	}
	info := h.info()
	if info.Encrypted {
		if strings.TrimSpace(opts.Password) == "" {
			return nil, ErrPasswordRequired
		}
		gcm, err := deriveGCM(opts.Password, h.salt[:])
		if err != nil {
			return nil, err
		}
		if payload, err = gcm.Open(nil, h.nonce[:], payload, nil); err != nil {
			return nil, ErrInvalidPassword
		}
	}
	if !info.Compressed {
		return bytes.Clone(payload), nil
	}
	plain, err := inflate(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	return plain, nil
}

func deflate(text []byte) ([]byte, error) {
	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	_, werr := zw.Write(text)
	if cerr := zw.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return nil, werr
	}
	return out.Bytes(), nil
}

func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	_, rerr := out.ReadFrom(zr)
	if cerr := zr.Close(); rerr == nil {
		rerr = cerr
	}
	if rerr != nil {
		return nil, rerr
	}
	return out.Bytes(), nil
}

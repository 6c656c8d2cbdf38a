package cryptoutil

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

// ErrBadSignature is returned when a signature does not match the message.
var ErrBadSignature = errors.New("signature verification failed")

// PublicKeyFetcher is the part of the KMS API the verifier uses.
// *kms.Client satisfies it.
type PublicKeyFetcher interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// KMSVerifier checks signatures locally with the public half of a KMS
// signing key. The key is fetched once and cached.
type KMSVerifier struct {
	client PublicKeyFetcher
	keyID  string

	mu  sync.Mutex
	pub crypto.PublicKey
}

func NewKMSVerifier(client PublicKeyFetcher, keyID string) *KMSVerifier {
	return &KMSVerifier{client: client, keyID: keyID}
}

// KeyID returns the configured key id or ARN.
func (v *KMSVerifier) KeyID() string { return v.keyID }

func (v *KMSVerifier) PublicKey(ctx context.Context) (crypto.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pub != nil {
		return v.pub, nil
	}
	if v.client == nil {
		return nil, xerrors.New("kms client is not configured")
	}

	out, err := v.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(v.keyID)})
	if err != nil {
		return nil, xerrors.Wrapf(err, "kms get public key %s", v.keyID)
	}
	if out.KeyUsage != kmstypes.KeyUsageTypeSignVerify {
		return nil, xerrors.Newf("kms key %s has KeyUsage=%s, expected SIGN_VERIFY", v.keyID, out.KeyUsage)
	}
	pub, err := x509.ParsePKIXPublicKey(out.PublicKey)
	if err != nil {
		return nil, xerrors.Wrap(err, "parse kms public key")
	}
	v.pub = pub
	return pub, nil
}

// Verify checks sig over message. ECDSA keys hash by curve (P-256 with
// SHA-256, P-384 with SHA-384); RSA keys use PSS over SHA-256.
func (v *KMSVerifier) Verify(ctx context.Context, message, sig []byte) error {
	pub, err := v.PublicKey(ctx)
	if err != nil {
		return err
	}
	switch key := pub.(type) {
	case *ecdsa.PublicKey:
		digest, err := ecdsaDigest(key.Curve, message)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(key, digest, sig) {
			return xerrors.WithStack(ErrBadSignature)
		}
		return nil
	case *rsa.PublicKey:
		digest := sha256.Sum256(message)
		if err := rsa.VerifyPSS(key, crypto.SHA256, digest[:], sig, nil); err != nil {
			return xerrors.Wrapf(ErrBadSignature, "rsa-pss: %v", err)
		}
		return nil
	default:
		return xerrors.Newf("unsupported public key type %T", pub)
	}
}

// VerifyEncoded is Verify for a base64 signature file as published next to
// a bundle. Surrounding whitespace is ignored.
func (v *KMSVerifier) VerifyEncoded(ctx context.Context, message, encoded []byte) error {
	sig, err := DecodeSignature(encoded)
	if err != nil {
		return err
	}
	return v.Verify(ctx, message, sig)
}

func DecodeSignature(encoded []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(encoded)
	if len(trimmed) == 0 {
		return nil, xerrors.New("empty signature")
	}
	sig, err := base64.StdEncoding.DecodeString(string(trimmed))
	if err != nil {
		return nil, xerrors.Wrap(err, "decode signature")
	}
	return sig, nil
}

func ecdsaDigest(curve elliptic.Curve, message []byte) ([]byte, error) {
	switch curve {
	case elliptic.P256():
		d := sha256.Sum256(message)
		return d[:], nil
	case elliptic.P384():
		d := sha512.Sum384(message)
		return d[:], nil
	default:
		return nil, xerrors.Newf("unsupported ECDSA curve %s", curve.Params().Name)
	}
}

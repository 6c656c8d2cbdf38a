package content

import (
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/keithlinneman/linnemanlabs-sections/internal/cryptoutil"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

// ParameterGetter is the SSM call the loader makes. *ssm.Client satisfies it.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ObjectGetter is the S3 call the loader makes. *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// SignatureVerifier checks a base64 detached signature over a bundle.
type SignatureVerifier interface {
	VerifyEncoded(ctx context.Context, message, encoded []byte) error
	KeyID() string
}

type LoaderOptions struct {
	Logger log.Logger

	// SSMParam holds the SHA-256 of the current bundle.
	SSMParam string

	// Bundles live at s3://{S3Bucket}/{S3Prefix}/{hash}.tar.gz with an
	// optional {hash}.tar.gz.sig next to them.
	S3Bucket string
	S3Prefix string

	// Verifier, when set, makes the signature object mandatory.
	Verifier SignatureVerifier
}

type Loader struct {
	opts   LoaderOptions
	ssm    ParameterGetter
	s3     ObjectGetter
	logger log.Logger
}

// NewLoader builds a loader on AWS clients from cfg.
func NewLoader(cfg aws.Config, opts LoaderOptions) (*Loader, error) {
	return NewLoaderWithClients(ssm.NewFromConfig(cfg), s3.NewFromConfig(cfg), opts)
}

func NewLoaderWithClients(ssmClient ParameterGetter, s3Client ObjectGetter, opts LoaderOptions) (*Loader, error) {
	if opts.SSMParam == "" {
		return nil, xerrors.New("SSMParam is required")
	}
	if opts.S3Bucket == "" {
		return nil, xerrors.New("S3Bucket is required")
	}
	if ssmClient == nil || s3Client == nil {
		return nil, xerrors.New("ssm and s3 clients are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Loader{opts: opts, ssm: ssmClient, s3: s3Client, logger: opts.Logger}, nil
}

// FetchCurrentBundleHash reads the published bundle digest from SSM.
func (l *Loader) FetchCurrentBundleHash(ctx context.Context) (string, error) {
	out, err := l.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(l.opts.SSMParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", l.opts.SSMParam)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", l.opts.SSMParam)
	}
	hash, err := cryptoutil.ParseSHA256(*out.Parameter.Value)
	if err != nil {
		return "", xerrors.Wrapf(err, "SSM parameter %s", l.opts.SSMParam)
	}
	return hash, nil
}

func (l *Loader) bundleKey(hash string) string {
	return path.Join(l.opts.S3Prefix, hash+".tar.gz")
}

// Load fetches whatever bundle SSM currently points at.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	hash, err := l.FetchCurrentBundleHash(ctx)
	if err != nil {
		return nil, err
	}
	return l.LoadHash(ctx, hash)
}

// LoadHash downloads the bundle for hash, checks its digest and signature,
// and indexes it in memory.
func (l *Loader) LoadHash(ctx context.Context, hash string) (*Snapshot, error) {
	key := l.bundleKey(hash)
	l.logger.Info(ctx, "downloading content bundle", "bucket", l.opts.S3Bucket, "key", key)

	data, actual, err := l.fetch(ctx, key, maxBundleSize)
	if err != nil {
		return nil, err
	}
	if !cryptoutil.HashEqual(actual, hash) {
		return nil, xerrors.Newf("checksum mismatch: expected %s, got %s", hash, actual)
	}

	meta := Meta{SHA256: hash, Source: SourceS3}
	if v := l.opts.Verifier; v != nil {
		sig, _, err := l.fetch(ctx, key+".sig", maxSignature)
		if err != nil {
			return nil, xerrors.Wrap(err, "fetch bundle signature")
		}
		if err := v.VerifyEncoded(ctx, data, sig); err != nil {
			return nil, xerrors.Wrapf(err, "verify bundle %s", truncHash(hash))
		}
		meta.Signed = true
		meta.KeyID = v.KeyID()
	}
	meta.VerifiedAt = time.Now().UTC()

	mfs, err := extractBundle(data)
	if err != nil {
		return nil, xerrors.Wrap(err, "extract bundle")
	}
	snap, err := Build(mfs, meta)
	if err != nil {
		return nil, err
	}

	l.logger.Info(ctx, "loaded content bundle",
		"hash", truncHash(hash),
		"bytes", len(data),
		"files", len(mfs),
		"pages", len(snap.Pages),
		"signed", meta.Signed,
	)
	return snap, nil
}

func (l *Loader) fetch(ctx context.Context, key string, limit int64) ([]byte, string, error) {
	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.opts.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", xerrors.Wrapf(err, "get s3://%s/%s", l.opts.S3Bucket, key)
	}
	defer out.Body.Close()

	data, hash, err := readWithHash(out.Body, limit)
	if err != nil {
		return nil, "", xerrors.Wrapf(err, "read s3://%s/%s", l.opts.S3Bucket, key)
	}
	return data, hash, nil
}

// LoadIntoManager loads the current bundle and makes it active.
func (l *Loader) LoadIntoManager(ctx context.Context, mgr *Manager) error {
	snap, err := l.Load(ctx)
	if err != nil {
		return err
	}
	mgr.Set(*snap)
	return nil
}

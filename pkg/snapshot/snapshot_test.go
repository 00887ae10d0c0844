package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

var sample = []model.RawTrialRecord{
	{
		NCTID:         "NCT04233866",
		BriefTitle:    `Gemcitabine, "Fluorouracil" and more`,
		Conditions:    "Pancreatic Cancer|Metastatic Disease",
		Interventions: "Drug: Gemcitabine||Drug: Fluorouracil",
		Phases:        "PHASE2",
	},
	{NCTID: "NCT00000002", OfficialTitle: "Multi\nline title"},
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))

	back, err := ReadCSV(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, sample, back)
}

func TestWriteCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "nctId,briefTitle,officialTitle,overallStatus,conditions,interventions,"+
		"studyFirstPostDate,lastUpdatePostDate,phases,studyType,sex,minimumAge,maximumAge\n", buf.String())
}

func TestCSVWriter_ReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "clinical_trials_data.csv")
	w := NewCSVWriter(path, zap.NewNop())

	require.NoError(t, w.Write(sample))
	require.NoError(t, w.Write(sample[:1]))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	back, err := ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, sample[:1], back)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_UploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.csv")
	require.NoError(t, NewCSVWriter(path, zap.NewNop()).Write(sample))

	client := &fakeS3{}
	u, err := NewS3Uploader(client, "trial-archive", "snapshots", zap.NewNop())
	require.NoError(t, err)

	key, err := u.UploadFile(context.Background(), "run-123", path)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/run-123.csv", key)
	assert.Equal(t, "trial-archive", aws.ToString(client.input.Bucket))
	assert.Equal(t, key, aws.ToString(client.input.Key))
	assert.Equal(t, "text/csv", aws.ToString(client.input.ContentType))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, onDisk, client.body)
}

func TestS3Uploader_Errors(t *testing.T) {
	_, err := NewS3Uploader(nil, "b", "", zap.NewNop())
	assert.Error(t, err)
	_, err = NewS3Uploader(&fakeS3{}, "", "", zap.NewNop())
	assert.Error(t, err)

	u, err := NewS3Uploader(&fakeS3{err: errors.New("access denied")}, "b", "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "r.csv", u.Key("r"))

	path := filepath.Join(t.TempDir(), "snap.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err = u.UploadFile(context.Background(), "r", path)
	assert.ErrorContains(t, err, "access denied")

	_, err = u.UploadFile(context.Background(), "r", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

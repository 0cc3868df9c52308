package utils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestR2Archive_PutJSON(t *testing.T) {
	fp := &fakePutter{}
	a := NewR2ArchiveWithClient(fp, "archives")

	err := a.PutJSON(context.Background(), "characters/1/100.json", map[string]any{"name": "ayla"})
	require.NoError(t, err)

	assert.Equal(t, "archives", *fp.input.Bucket)
	assert.Equal(t, "characters/1/100.json", *fp.input.Key)
	assert.Equal(t, "application/json", *fp.input.ContentType)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fp.body, &got))
	assert.Equal(t, "ayla", got["name"])
}

func TestR2Archive_PutJSONErrors(t *testing.T) {
	a := NewR2ArchiveWithClient(&fakePutter{err: errors.New("boom")}, "archives")
	err := a.PutJSON(context.Background(), "k", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload to R2")

	err = a.PutJSON(context.Background(), "k", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode archive")
}

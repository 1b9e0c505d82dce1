package aws

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/sfmovies/locations-service/pkg/construct"
	"github.com/sfmovies/locations-service/pkg/internal/extmocks"
	"github.com/sfmovies/locations-service/pkg/internal/testutil"
	"github.com/sfmovies/locations-service/pkg/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

type mockParams struct {
	mock.Mock
}

func (m *mockParams) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*ssm.GetParameterOutput)
	return out, args.Error(1)
}

func TestS3Feed(t *testing.T) {
	ctx := context.Background()
	input := &s3.GetObjectInput{Bucket: aws.String("feeds"), Key: aws.String("films.json")}

	t.Run("reads snapshot", func(t *testing.T) {
		client := &mockS3{}
		client.On("GetObject", extmocks.AnyContext, input).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader(`[{"title":"Bullitt","release_year":"1968","locations":"Taylor Street"}]`)),
		}, nil)

		records := testutil.Must(NewS3FeedWithClient(client, "feeds", "films.json").Fetch(ctx))(t)
		require.Len(t, records, 1)
		require.Equal(t, types.Text("Taylor Street"), records[0].Locations)
		client.AssertExpectations(t)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		client := &mockS3{}
		client.On("GetObject", extmocks.AnyContext, input).Return(nil, &s3types.NoSuchKey{})

		_, err := NewS3FeedWithClient(client, "feeds", "films.json").Fetch(ctx)
		var perr *types.ProviderError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "no snapshot at s3://feeds/films.json", perr.Data)
	})

	t.Run("corrupt snapshot", func(t *testing.T) {
		client := &mockS3{}
		client.On("GetObject", extmocks.AnyContext, input).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader(`{`)),
		}, nil)

		_, err := NewS3FeedWithClient(client, "feeds", "films.json").Fetch(ctx)
		var perr *types.ProviderError
		require.ErrorAs(t, err, &perr)
	})
}

func TestNewConfig(t *testing.T) {
	ctx := context.Background()
	awsConfig := aws.Config{Region: "us-west-2"}

	t.Run("password auth", func(t *testing.T) {
		t.Setenv("REDIS_URL", "catalog.local")
		t.Setenv("REDIS_PASSWD", "secret")
		t.Setenv("CATALOG_NAMESPACE", "Films")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

		cfg := testutil.Must(newConfig(ctx, awsConfig, &mockParams{}))(t)
		require.Equal(t, "catalog.local:6379", cfg.Redis.Addr)
		require.Equal(t, "secret", cfg.Redis.Password)
		require.Nil(t, cfg.Redis.TLSConfig)
		require.Equal(t, "Films", cfg.Namespace)
		require.Empty(t, cfg.FeedBucket)
		require.False(t, cfg.TracingEnabled)
		require.Equal(t, construct.DefaultServiceConfig().FeedURL, cfg.FeedURL)
		require.NoError(t, cfg.Validate())
	})

	t.Run("iam auth with api key and snapshot", func(t *testing.T) {
		t.Setenv("REDIS_URL", "catalog.local")
		t.Setenv("REDIS_USER_ID", "catalog-user")
		t.Setenv("REDIS_CACHE_NAME", "catalog")
		t.Setenv("GEOCODER_API_KEY_PARAM", "/locations/geocoder-key")
		t.Setenv("FEED_BUCKET", "feeds")
		t.Setenv("FEED_KEY", "films.json")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
		t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")

		params := &mockParams{}
		params.On("GetParameter", extmocks.AnyContext, &ssm.GetParameterInput{
			Name:           aws.String("/locations/geocoder-key"),
			WithDecryption: aws.Bool(true),
		}).Return(&ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String("key")}}, nil)

		cfg := testutil.Must(newConfig(ctx, awsConfig, params))(t)
		require.NotNil(t, cfg.Redis.CredentialsProviderContext)
		require.NotNil(t, cfg.Redis.TLSConfig)
		require.Equal(t, "key", cfg.GeocoderAPIKey)
		require.Equal(t, "feeds", cfg.FeedBucket)
		require.Equal(t, "films.json", cfg.FeedKey)
		require.True(t, cfg.TracingEnabled)
		require.Equal(t, "https://key@sentry.example/1", cfg.SentryDSN)
		params.AssertExpectations(t)
	})

	t.Run("parameter errors", func(t *testing.T) {
		t.Setenv("REDIS_URL", "catalog.local")
		t.Setenv("GEOCODER_API_KEY_PARAM", "/locations/geocoder-key")

		params := &mockParams{}
		params.On("GetParameter", extmocks.AnyContext, mock.Anything).Return(nil, errors.New("access denied")).Once()
		_, err := newConfig(ctx, awsConfig, params)
		require.EqualError(t, err, "retrieving geocoder API key: access denied")

		params.On("GetParameter", extmocks.AnyContext, mock.Anything).Return(&ssm.GetParameterOutput{}, nil).Once()
		_, err = newConfig(ctx, awsConfig, params)
		require.ErrorIs(t, err, ErrNoAPIKey)
	})

	t.Run("missing redis url", func(t *testing.T) {
		t.Setenv("REDIS_URL", "")
		require.Panics(t, func() {
			newConfig(ctx, awsConfig, &mockParams{})
		})
	})
}

func TestRedisCredentialsProvider(t *testing.T) {
	ctx := context.Background()
	awsConfig := aws.Config{
		Region: "us-west-2",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}, nil
		}),
	}

	user, token, err := redisCredentialsProvider(awsConfig, "catalog-user", "catalog")(ctx)
	require.NoError(t, err)
	require.Equal(t, "catalog-user", user)
	require.True(t, strings.HasPrefix(token, "catalog/?"))
	require.Contains(t, token, "Action=connect")
	require.Contains(t, token, "User=catalog-user")
	require.Contains(t, token, "X-Amz-Expires=899")
	require.Contains(t, token, "X-Amz-Signature=")

	req := iamAuthTokenRequest{userID: "u", cacheName: "c", region: "us-west-2", now: func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}}
	creds := aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}
	first := testutil.Must(req.toSignedRequestURI(ctx, creds))(t)
	second := testutil.Must(req.toSignedRequestURI(ctx, creds))(t)
	require.Equal(t, first, second)
	require.Contains(t, first, "X-Amz-Date=20240101T000000Z")

	failing := aws.Config{
		Region: "us-west-2",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{}, errors.New("no credentials")
		}),
	}
	_, _, err = redisCredentialsProvider(failing, "catalog-user", "catalog")(ctx)
	require.EqualError(t, err, "getting aws credentials: no credentials")
}

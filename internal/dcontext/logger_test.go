package dcontext

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerDefaultsWhenAbsent(t *testing.T) {
	logger := GetLogger(Background())
	require.NotNil(t, logger)
}

func TestWithLoggerRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.Out = &buf
	entry := base.WithField("component", "test")

	ctx := WithLogger(Background(), entry)
	logger := GetLogger(ctx)
	logger.Info("hello")

	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "component=test")
}

func TestGetLoggerWithFieldAddsKey(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.Out = &buf

	ctx := WithLogger(Background(), base.WithField("x", 1))
	logger := GetLoggerWithField(ctx, "repository", "/tmp/repo")
	logger.Warn("configured")

	require.Contains(t, buf.String(), "repository=/tmp/repo")
}

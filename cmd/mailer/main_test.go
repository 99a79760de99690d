package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLoggerNeverNil(t *testing.T) {
	for _, env := range []string{envLocal, envDev, envProd, "staging", ""} {
		require.NotNil(t, setupLogger(env), "env %q", env)
	}
}

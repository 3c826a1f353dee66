package docstore

import (
	"errors"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{status.Error(codes.Unavailable, "try later"), true},
		{status.Error(codes.DeadlineExceeded, "slow"), true},
		{status.Error(codes.ResourceExhausted, "quota"), true},
		{status.Error(codes.NotFound, "gone"), false},
		{status.Error(codes.AlreadyExists, "taken"), false},
		{status.Error(codes.Aborted, "contention"), false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, retryable(tt.err), "%v", tt.err)
	}
}

func TestMapError(t *testing.T) {
	require.NoError(t, mapError(nil, "teams/t1"))

	err := mapError(status.Error(codes.NotFound, "no doc"), "teams/t1")
	require.True(t, IsErrNotFound(err))
	require.Contains(t, err.Error(), "teams/t1")

	err = mapError(status.Error(codes.AlreadyExists, "exists"), "joinCodes/AAAAAA")
	require.True(t, IsErrAlreadyExists(err))
	require.False(t, IsErrNotFound(err))

	conflict := errors.Join(ErrConflict, errors.New("teams/t1.joinCode changed"))
	require.True(t, IsErrConflict(mapError(conflict, "batch")))

	other := status.Error(codes.PermissionDenied, "rules")
	require.Same(t, other, mapError(other, "teams/t1"))
}

func TestToFirestore(t *testing.T) {
	in := map[string]any{
		"name":      "Eagles",
		"createdAt": ServerTimestamp,
		"fcmTokens": ArrayUnion("tok-1"),
		"stale":     ArrayRemove("tok-0", "tok-2"),
		"practice": map[string]any{
			"attended":   true,
			"missReason": Delete,
		},
	}

	out := toFirestore(in)
	require.Equal(t, "Eagles", out["name"])
	require.Equal(t, firestore.ServerTimestamp, out["createdAt"])
	require.Equal(t, firestore.ArrayUnion("tok-1"), out["fcmTokens"])
	require.Equal(t, firestore.ArrayRemove("tok-0", "tok-2"), out["stale"])
	require.Equal(t, map[string]any{"attended": true, "missReason": firestore.Delete}, out["practice"])

	// the input keeps the store-neutral sentinels
	require.Equal(t, ServerTimestamp, in["createdAt"])
	require.Equal(t, Delete, in["practice"].(map[string]any)["missReason"])
}

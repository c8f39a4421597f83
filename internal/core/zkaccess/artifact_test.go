package zkaccess

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// artifact.go 测试
// ============================================================================

// TestArtifact_VerifyingKeyRoundtrip 测试验证密钥落盘与加载
func TestArtifact_VerifyingKeyRoundtrip(t *testing.T) {
	f := setupFixture(t)
	dir := t.TempDir()

	vkw, ok := f.vk.(io.WriterTo)
	require.True(t, ok)

	path := filepath.Join(dir, ArtifactVerifyingKeyFile)
	require.NoError(t, SaveArtifact(path, vkw))

	loaded, err := LoadVerifyingKey(path, f.scheme.CurveID())
	require.NoError(t, err)

	b1, err := f.scheme.SerializeVerifyingKey(f.vk)
	require.NoError(t, err)
	b2, err := f.scheme.SerializeVerifyingKey(loaded)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

// TestArtifact_TranscriptRoundtrip 测试转录本落盘与加载（加载即校验链）
func TestArtifact_TranscriptRoundtrip(t *testing.T) {
	_, transcript := newTestCeremony(t)
	dir := t.TempDir()

	path := filepath.Join(dir, ArtifactTranscriptFile)
	require.NoError(t, SaveArtifact(path, transcript))

	loaded, err := LoadTranscript(path)
	require.NoError(t, err)
	require.Equal(t, transcript.Contributions, loaded.Contributions)
}

// TestArtifact_LoadMissingFile 测试缺失文件报错
func TestArtifact_LoadMissingFile(t *testing.T) {
	f := setupFixture(t)
	_, err := LoadVerifyingKey(filepath.Join(t.TempDir(), "nope.key"), f.scheme.CurveID())
	require.Error(t, err)

	_, err = LoadTranscript(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
}

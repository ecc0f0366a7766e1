package gen

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPCMToWAVHeader(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	wav := pcmToWAV(pcm, 1, 24000, 16)

	require.Len(t, wav, 44+len(pcm))
	require.Equal(t, "RIFF", string(wav[0:4]))
	require.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	require.Equal(t, "WAVE", string(wav[8:12]))
	require.Equal(t, "fmt ", string(wav[12:16]))
	require.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[16:20]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))
	require.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	require.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]))
	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]))
	require.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	require.Equal(t, "data", string(wav[36:40]))
	require.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	require.Equal(t, pcm, wav[44:])
}

func TestPCMToWAVStereo(t *testing.T) {
	t.Parallel()

	wav := pcmToWAV(nil, 2, 44100, 16)

	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[22:24]))
	require.Equal(t, uint32(176400), binary.LittleEndian.Uint32(wav[28:32]))
	require.Equal(t, uint16(4), binary.LittleEndian.Uint16(wav[32:34]))
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(wav[40:44]))
}

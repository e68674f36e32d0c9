package utils

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tiffWithMake builds a little-endian TIFF block with a single Make tag
func tiffWithMake(maker string) []byte {
	value := append([]byte(maker), 0)

	var buf bytes.Buffer
	buf.WriteString("II*\x00")
	binary.Write(&buf, binary.LittleEndian, uint32(8)) // first IFD
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // entry count
	binary.Write(&buf, binary.LittleEndian, uint16(0x010F))
	binary.Write(&buf, binary.LittleEndian, uint16(2)) // ASCII
	binary.Write(&buf, binary.LittleEndian, uint32(len(value)))
	binary.Write(&buf, binary.LittleEndian, uint32(8+2+12+4))
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // no next IFD
	buf.Write(value)
	return buf.Bytes()
}

func TestExtractEXIFBytes(t *testing.T) {
	tags := ExtractEXIFBytes(tiffWithMake("Wacom"))
	require.NotNil(t, tags)
	assert.Contains(t, tags["Make"], "Wacom")
}

func TestExtractEXIFBytes_NoMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	assert.Nil(t, ExtractEXIFBytes(buf.Bytes()))
	assert.Nil(t, ExtractEXIFBytes(nil))
	assert.Nil(t, ExtractEXIFBytes([]byte("not an image")))
}

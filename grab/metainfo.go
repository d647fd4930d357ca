package grab

import (
	"bytes"
	"fmt"

	"github.com/anacrolix/torrent/metainfo"
)

// torrentMeta is what the payload check extracts from a .torrent file
type torrentMeta struct {
	Name     string
	InfoHash string
	Length   int64
}

// inspect verifies that payload is a bencoded torrent with an info
// dictionary. The tracker may answer a stale link with an HTML page and
// status 200.
func inspect(payload []byte) (torrentMeta, error) {
	mi, err := metainfo.Load(bytes.NewReader(payload))
	if err != nil {
		return torrentMeta{}, fmt.Errorf("invalid torrent payload: %w", err)
	}
	if len(mi.InfoBytes) == 0 {
		return torrentMeta{}, fmt.Errorf("invalid torrent payload: missing info dictionary")
	}

	info, err := mi.UnmarshalInfo()
	if err != nil {
		return torrentMeta{}, fmt.Errorf("invalid torrent info: %w", err)
	}

	return torrentMeta{
		Name:     info.Name,
		InfoHash: mi.HashInfoBytes().HexString(),
		Length:   info.TotalLength(),
	}, nil
}

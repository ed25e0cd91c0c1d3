package constant

// HTTP header and playlist identifiers shared by the resolver and the data source.
const (
	// IdentificationHeader is the reserved header carrying the client identity.
	IdentificationHeader = "User-Agent"

	// SegmentedPlaylistMarker identifies an HLS playlist URL.
	SegmentedPlaylistMarker = ".m3u8"

	// CatalogFile is the file name of the stream catalog.
	CatalogFile = "streams.json"
)

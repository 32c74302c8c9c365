package manifest

// ResourceRecord is the result of downloading one resource: where it landed
// on disk, how it fits the dataset's partitioning, and (for zip containers)
// the inner layout the file is expected to have. Records are immutable once
// produced by the fetch driver.
type ResourceRecord struct {
	LocalPath  string
	Partitions Partitions

	// Layout is non-nil only for zip resources whose internal file set is
	// known ahead of time and should be verified after download.
	Layout *ZipLayout
}

// ZipLayout describes the file names a zip container is expected to hold.
type ZipLayout struct {
	FileNames []string

	// Exact requires the container to hold exactly FileNames; otherwise the
	// expected names only need to be a subset of the container's contents.
	Exact bool
}

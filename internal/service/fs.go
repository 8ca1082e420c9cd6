package service

import "io"

type MediaStorage interface {
	// Save stores a file's content under the given collision-free stored
	// filename and returns the absolute path of the written file.
	Save(fileData io.Reader, storedFilename string) (string, error)

	// SaveThumbnail stores thumbnail bytes and returns the thumbnail
	// filename relative to the thumbnails directory.
	SaveThumbnail(data []byte, thumbFilename string) (string, error)

	// Read opens a stored file for reading.
	Read(storedFilename string) (io.ReadCloser, error)

	// DeleteFile removes a stored file. A missing file is reported via a
	// wrapped os.ErrNotExist.
	DeleteFile(storedFilename string) error

	// DeleteThumbnail removes a thumbnail with the same contract as
	// DeleteFile.
	DeleteThumbnail(thumbFilename string) error
}

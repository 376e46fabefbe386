package mdir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-maildir"
	"github.com/lantianz/lantz-tmail/lib"
)

// Archive saves messages to local maildir folders, one folder per temporary
// address. Standard mail clients can open the folders directly.
type Archive struct {
	root string
	log  lib.Logger
}

func New(root string) (*Archive, error) {
	err := os.MkdirAll(root, 0700)
	if err != nil {
		return nil, err
	}
	return &Archive{
		root: root,
		log:  &lib.NoLog{},
	}, nil
}

func (a *Archive) DebugLogger(logger lib.Logger) {
	a.log = logger
}

func (a *Archive) Root() string {
	return a.root
}

// Save writes the raw message source into the folder of the address and
// returns the maildir key.
func (a *Archive) Save(address string, flags []string, body io.Reader) (string, error) {
	mbox := maildir.Dir(filepath.Join(a.root, folderName(address)))
	if err := mbox.Init(); err != nil {
		return "", fmt.Errorf("cannot initialize maildir for %q: %w", address, err)
	}
	key, writer, err := mbox.Create(toFlags(flags))
	if err != nil {
		return "", err
	}
	defer writer.Close()
	copied, err := io.Copy(writer, body)
	if err != nil {
		return "", err
	}
	a.log.Printf("Message saved: address=%q key=%q size=%d", address, key, copied)
	return key, nil
}

// Keys lists the saved messages for an address.
func (a *Archive) Keys(address string) ([]string, error) {
	mbox := maildir.Dir(filepath.Join(a.root, folderName(address)))
	keys, err := mbox.Keys()
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return keys, nil
}

// Open returns the raw source of one saved message.
func (a *Archive) Open(address, key string) (io.ReadCloser, error) {
	mbox := maildir.Dir(filepath.Join(a.root, folderName(address)))
	return mbox.Open(key)
}

// Addresses lists the folders present in the archive.
func (a *Archive) Addresses() ([]string, error) {
	files, err := os.ReadDir(a.root)
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, len(files))
	for _, file := range files {
		if !file.IsDir() {
			continue
		}
		list = append(list, file.Name())
	}
	return list, nil
}

// folderName keeps the address readable while staying a single safe path
// element.
func folderName(address string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '@' || r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, address)
}

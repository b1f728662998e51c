// Package testsupport holds in-memory fakes for tests.
package testsupport

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/weberc2/fatsim/pkg/objectstore"
)

var _ objectstore.ObjectStore = ObjectStoreFake{}

// ObjectStoreFake is an in-memory object store. Its bucket name is only
// used in not-found errors.
type ObjectStoreFake map[string][]byte

const FakeBucket = "fake-bucket"

func (osf ObjectStoreFake) PutObject(key string, data io.ReadSeeker) error {
	var b bytes.Buffer
	if _, err := io.Copy(&b, data); err != nil {
		return err
	}
	osf[key] = b.Bytes()
	return nil
}

func (osf ObjectStoreFake) GetObject(key string) (io.ReadCloser, error) {
	data, found := osf[key]
	if !found {
		return nil, &objectstore.ObjectNotFoundErr{Bucket: FakeBucket, Key: key}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ListObjects returns the matching keys in lexical order, like S3 does.
func (osf ObjectStoreFake) ListObjects(prefix string) ([]string, error) {
	var out []string
	for key := range osf {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (osf ObjectStoreFake) DeleteObject(key string) error {
	if _, found := osf[key]; !found {
		return &objectstore.ObjectNotFoundErr{Bucket: FakeBucket, Key: key}
	}
	delete(osf, key)
	return nil
}

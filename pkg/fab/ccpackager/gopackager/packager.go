/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package gopackager packages the source of Go chaincode into the tar.gz
// code package installed on peers.
package gopackager

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"go/build"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/resource"
)

const metaInf = "META-INF"

// A list of file extensions that should be packaged into the .tar.gz.
// Files with all other file extensions are excluded to minimize the size
// of the install payload.
var keep = []string{".c", ".h", ".s", ".go", ".yaml", ".json"}

var logger = logging.NewLogger("orchestrator/fab")

type descriptor struct {
	name string
	fqp  string
}

type options struct {
	metadataDir string
}

// Opt is a packaging option
type Opt func(*options)

// WithMetadata packages the contents of dir (statedb index definitions and
// the like) under META-INF
func WithMetadata(dir string) Opt {
	return func(o *options) {
		o.metadataDir = dir
	}
}

// NewCCPackage packages the Go chaincode at chaincodePath. Sources are read
// from sourceDir, or from GOPATH/src/chaincodePath when sourceDir is empty,
// and stored under src/chaincodePath in the archive.
func NewCCPackage(chaincodePath string, sourceDir string, opts ...Opt) (*resource.CCPackage, error) {
	if chaincodePath == "" {
		return nil, errors.New("chaincode path must be provided")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	projDir := sourceDir
	if projDir == "" {
		gp := defaultGoPath()
		if gp == "" {
			return nil, errors.New("GOPATH not defined")
		}
		logger.Debugf("Default GOPATH=%s", gp)
		projDir = filepath.Join(gp, "src", chaincodePath)
	}
	logger.Debugf("packaging chaincode %s from %s", chaincodePath, projDir)

	descriptors, err := findSource(projDir, path.Join("src", filepath.ToSlash(chaincodePath)))
	if err != nil {
		return nil, err
	}
	if !containsGoSource(descriptors) {
		return nil, errors.Errorf("no Go source found in %s", projDir)
	}

	if o.metadataDir != "" {
		metadata, err := findMetadata(o.metadataDir)
		if err != nil {
			return nil, err
		}
		descriptors = mergeDescriptors(descriptors, metadata)
	}

	tarBytes, err := generateTarGz(descriptors)
	if err != nil {
		return nil, err
	}
	return &resource.CCPackage{Type: pb.ChaincodeSpec_GOLANG, Code: tarBytes}, nil
}

// findSource walks dir for regular source files. Entries are named by their
// position relative to dir below prefix, except that anything inside a
// META-INF directory is moved to the archive root.
func findSource(dir string, prefix string) ([]*descriptor, error) {
	var descriptors []*descriptor
	err := filepath.Walk(dir, func(p string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.Mode().IsRegular() || !isSource(p) {
			return nil
		}
		relPath, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		name := path.Join(prefix, filepath.ToSlash(relPath))
		if i := strings.Index(name, "/"+metaInf+"/"); i >= 0 {
			name = name[i+1:]
		}
		descriptors = append(descriptors, &descriptor{name: name, fqp: p})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk of %s failed", dir)
	}
	return descriptors, nil
}

// findMetadata collects the files of a metadata directory. Only JSON
// documents are valid metadata.
func findMetadata(dir string) ([]*descriptor, error) {
	var descriptors []*descriptor
	err := filepath.Walk(dir, func(p string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.Mode().IsRegular() {
			return nil
		}
		if filepath.Ext(p) != ".json" {
			logger.Debugf("skipping metadata file %s", p)
			return nil
		}
		relPath, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, &descriptor{name: path.Join(metaInf, filepath.ToSlash(relPath)), fqp: p})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk of metadata %s failed", dir)
	}
	return descriptors, nil
}

// mergeDescriptors adds extra to base. An extra entry replaces a base entry
// of the same name.
func mergeDescriptors(base, extra []*descriptor) []*descriptor {
	byName := make(map[string]*descriptor, len(base)+len(extra))
	for _, d := range base {
		byName[d.name] = d
	}
	for _, d := range extra {
		byName[d.name] = d
	}
	merged := make([]*descriptor, 0, len(byName))
	for _, d := range byName {
		merged = append(merged, d)
	}
	return merged
}

func isSource(filePath string) bool {
	extension := filepath.Ext(filePath)
	for _, v := range keep {
		if v == extension {
			return true
		}
	}
	return false
}

func containsGoSource(descriptors []*descriptor) bool {
	for _, d := range descriptors {
		if path.Ext(d.name) == ".go" && !strings.HasPrefix(d.name, metaInf+"/") {
			return true
		}
	}
	return false
}

// generateTarGz creates a .tar.gz stream of the descriptors sorted by name
func generateTarGz(descriptors []*descriptor) ([]byte, error) {
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].name < descriptors[j].name })

	var codePackage bytes.Buffer
	gw := gzip.NewWriter(&codePackage)
	tw := tar.NewWriter(gw)
	for _, v := range descriptors {
		logger.Debugf("generateTarGz for %s", v.fqp)
		if err := packEntry(tw, v); err != nil {
			if err1 := closeStream(tw, gw); err1 != nil {
				return nil, errors.Wrapf(err, "packEntry failed and close error %s", err1)
			}
			return nil, errors.Wrap(err, "packEntry failed")
		}
	}
	if err := closeStream(tw, gw); err != nil {
		return nil, errors.Wrap(err, "closeStream failed")
	}
	return codePackage.Bytes(), nil
}

func closeStream(tw io.Closer, gw io.Closer) error {
	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

func packEntry(tw *tar.Writer, d *descriptor) error {
	file, err := os.Open(d.fqp)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warnf("error file close %s", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	// Use a deterministic "zero-time" for all date fields
	header := &tar.Header{
		Name:       d.name,
		Size:       stat.Size(),
		Mode:       int64(stat.Mode().Perm()),
		ModTime:    time.Time{},
		AccessTime: time.Time{},
		ChangeTime: time.Time{},
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}

// defaultGoPath returns the first entry of the system's GOPATH
func defaultGoPath() string {
	return filepath.SplitList(build.Default.GOPATH)[0]
}

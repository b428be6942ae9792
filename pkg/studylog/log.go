// Package studylog persists completed studies as self-contained archives:
// everything needed to recompute, audit, or re-plot a study without the
// original cohort files at hand.
package studylog

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

const (
	KindLOOCV      = "loocv"
	KindValidation = "validation"

	timeLayout        = "2006-01-02T15:04:05-07:00"
	defaultSeedPolicy = "10000*repeat+fold"
)

// StudyLog is the archived form of a completed study.
type StudyLog struct {
	Version     int                      `json:"version"`
	Status      string                   `json:"status"`
	Study       StudySpec                `json:"study"`
	Summary     core.Summary             `json:"summary"`
	MeanROC     *core.AveragedROC        `json:"mean_roc,omitempty"`
	Importances []core.FeatureImportance `json:"importances,omitempty"`
	Repeats     []core.RepeatResult      `json:"repeats,omitempty"`
	Runs        []core.RunResult         `json:"runs,omitempty"`
	Stats       StudyStats               `json:"stats"`
}

// StudySpec is the manifest: what ran, on what data, with which knobs.
type StudySpec struct {
	Created    string            `json:"created"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Classifier string            `json:"classifier"`
	Positive   string            `json:"positive"`
	Negative   string            `json:"negative"`
	Features   []string          `json:"features"`
	Repeats    int               `json:"repeats,omitempty"`
	Runs       int               `json:"runs,omitempty"`
	SeedPolicy string            `json:"seed_policy"`
	Weighted   bool              `json:"weighted,omitempty"`
	Dataset    DatasetSpec       `json:"dataset"`
	Holdout    *DatasetSpec      `json:"holdout,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	StudyID    string            `json:"study_id"`
}

// DatasetSpec identifies a dataset without embedding it. The fingerprint
// hashes features, values, and labels, so a re-run can verify it is
// looking at the same cohort.
type DatasetSpec struct {
	Name        string `json:"name"`
	Samples     int    `json:"samples"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type StudyStats struct {
	StartedAt   string  `json:"started_at"`
	CompletedAt string  `json:"completed_at"`
	Elapsed     float64 `json:"elapsed_seconds"`
}

// FromReport converts a LOOCV report into its archive form. The dataset is
// optional and only contributes its fingerprint.
func FromReport(report *core.Report, ds *core.Dataset) StudyLog {
	startedAt, completedAt := clampTimes(report.StartedAt, report.FinishedAt)

	spec := StudySpec{
		Created:    startedAt.UTC().Format(timeLayout),
		Name:       report.Study,
		Kind:       KindLOOCV,
		Classifier: report.Classifier,
		Positive:   report.Positive,
		Negative:   report.Negative,
		Features:   report.Features,
		Repeats:    len(report.Repeats),
		SeedPolicy: defaultSeedPolicy,
		Dataset: DatasetSpec{
			Name:        report.Dataset,
			Samples:     report.Samples,
			Fingerprint: Fingerprint(ds),
		},
		Metadata: report.Metadata,
		StudyID:  generateID(),
	}

	var meanROC *core.AveragedROC
	if report.MeanROC.Curves > 0 {
		roc := report.MeanROC
		meanROC = &roc
	}

	return StudyLog{
		Version: 1,
		Status:  "success",
		Study:   spec,
		Summary: report.Summary,
		MeanROC: meanROC,
		Repeats: report.Repeats,
		Stats:   buildStats(startedAt, completedAt),
	}
}

// FromValidation converts a holdout validation report into its archive
// form. Both datasets are optional and only contribute fingerprints and
// sample counts.
func FromValidation(report *core.ValidationReport, train, holdout *core.Dataset) StudyLog {
	startedAt, completedAt := clampTimes(report.StartedAt, report.FinishedAt)

	holdoutSamples := 0
	if holdout != nil {
		holdoutSamples = holdout.Len()
	} else if len(report.Runs) > 0 {
		holdoutSamples = len(report.Runs[0].Predictions)
	}
	trainSamples := 0
	if train != nil {
		trainSamples = train.Len()
	}

	spec := StudySpec{
		Created:    startedAt.UTC().Format(timeLayout),
		Name:       report.Study,
		Kind:       KindValidation,
		Classifier: report.Classifier,
		Positive:   report.Positive,
		Negative:   report.Negative,
		Features:   report.Features,
		Runs:       len(report.Runs),
		SeedPolicy: defaultSeedPolicy,
		Weighted:   report.Weighted,
		Dataset: DatasetSpec{
			Name:        report.TrainSet,
			Samples:     trainSamples,
			Fingerprint: Fingerprint(train),
		},
		Holdout: &DatasetSpec{
			Name:        report.HoldoutSet,
			Samples:     holdoutSamples,
			Fingerprint: Fingerprint(holdout),
		},
		Metadata: report.Metadata,
		StudyID:  generateID(),
	}

	return StudyLog{
		Version:     1,
		Status:      "success",
		Study:       spec,
		Summary:     report.Summary,
		Importances: report.Importances,
		Runs:        report.Runs,
		Stats:       buildStats(startedAt, completedAt),
	}
}

// Fingerprint hashes a dataset's features, values, and labels.
func Fingerprint(ds *core.Dataset) string {
	if ds == nil {
		return ""
	}
	h := sha256.New()
	for _, f := range ds.Features {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	var buf [8]byte
	for _, row := range ds.X {
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	for _, label := range ds.Labels {
		h.Write([]byte(label))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// WriteJSON writes the study log as one indented JSON file and returns
// its path.
func WriteJSON(logDir string, log StudyLog) (string, error) {
	if logDir == "" {
		return "", fmt.Errorf("studylog: logDir is required")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(logDir, buildLogFileName(log, "json"))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(log); err != nil {
		return "", err
	}
	return path, nil
}

// WriteArchive writes the study as a .study zip: the manifest and summary
// up front, one entry per repeat or run behind them. Entries are stored
// uncompressed with fixed timestamps, so equal studies produce
// byte-identical archives.
func WriteArchive(logDir string, log StudyLog) (string, error) {
	if logDir == "" {
		return "", fmt.Errorf("studylog: logDir is required")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(logDir, buildLogFileName(log, "study"))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)
	defer zipWriter.Close()

	header := log
	header.Repeats = nil
	header.Runs = nil
	if err := writeZipJSON(zipWriter, "header.json", header); err != nil {
		return "", err
	}
	if err := writeZipJSON(zipWriter, "summary.json", log.Summary); err != nil {
		return "", err
	}
	if log.MeanROC != nil {
		if err := writeZipJSON(zipWriter, "roc.json", log.MeanROC); err != nil {
			return "", err
		}
	}
	if len(log.Importances) > 0 {
		if err := writeZipJSON(zipWriter, "importances.json", log.Importances); err != nil {
			return "", err
		}
	}
	for _, repeat := range log.Repeats {
		name := fmt.Sprintf("repeats/%d.json", repeat.Repeat)
		if err := writeZipJSON(zipWriter, name, repeat); err != nil {
			return "", err
		}
	}
	for _, run := range log.Runs {
		name := fmt.Sprintf("runs/%d.json", run.Run)
		if err := writeZipJSON(zipWriter, name, run); err != nil {
			return "", err
		}
	}
	return path, nil
}

// ReadArchive reassembles a study log from a .study archive.
func ReadArchive(path string) (StudyLog, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return StudyLog{}, err
	}
	defer r.Close()

	var log StudyLog
	found := false
	for _, f := range r.File {
		if f.Name == "header.json" {
			if err := decodeZipJSON(f, &log); err != nil {
				return StudyLog{}, err
			}
			found = true
			break
		}
	}
	if !found {
		return StudyLog{}, fmt.Errorf("studylog: %s has no header.json", path)
	}

	for _, f := range r.File {
		switch filepath.Dir(f.Name) {
		case "repeats":
			var repeat core.RepeatResult
			if err := decodeZipJSON(f, &repeat); err != nil {
				return StudyLog{}, err
			}
			log.Repeats = append(log.Repeats, repeat)
		case "runs":
			var run core.RunResult
			if err := decodeZipJSON(f, &run); err != nil {
				return StudyLog{}, err
			}
			log.Runs = append(log.Runs, run)
		}
	}
	return log, nil
}

// ReadJSON loads a study log written by WriteJSON.
func ReadJSON(path string) (StudyLog, error) {
	var log StudyLog
	f, err := os.Open(path)
	if err != nil {
		return StudyLog{}, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&log); err != nil {
		return StudyLog{}, err
	}
	return log, nil
}

func decodeZipJSON(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return json.NewDecoder(rc).Decode(v)
}

func writeZipJSON(writer *zip.Writer, name string, data any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return err
	}

	payload := buf.Bytes()
	size := uint64(len(payload))
	header := &zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		Flags:              0,
		UncompressedSize64: size,
		CompressedSize64:   size,
		UncompressedSize:   uint32(size),
		CompressedSize:     uint32(size),
		CRC32:              crc32.ChecksumIEEE(payload),
	}
	header.SetModTime(time.Unix(0, 0))

	header.Flags &^= 0x8 // ensure no data descriptor
	entry, err := writer.CreateRaw(header)
	if err != nil {
		return err
	}
	if _, err := entry.Write(payload); err != nil {
		return err
	}
	return nil
}

func buildLogFileName(log StudyLog, ext string) string {
	timestamp := time.Now().Format("2006-01-02T15-04-05")
	study := sanitizeName(log.Study.Name)
	classifier := sanitizeName(log.Study.Classifier)
	if study == "" {
		study = "study"
	}
	if classifier == "" {
		classifier = "classifier"
	}
	return fmt.Sprintf("%s_%s_%s.%s", timestamp, study, classifier, ext)
}

func sanitizeName(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range strings.ToLower(input) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			out = append(out, r)
		}
	}
	return string(out)
}

func clampTimes(startedAt, completedAt time.Time) (time.Time, time.Time) {
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	return startedAt, completedAt
}

func buildStats(startedAt, completedAt time.Time) StudyStats {
	return StudyStats{
		StartedAt:   startedAt.UTC().Format(timeLayout),
		CompletedAt: completedAt.UTC().Format(timeLayout),
		Elapsed:     completedAt.Sub(startedAt).Seconds(),
	}
}

func generateID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

package metrics

import (
	"context"
	"errors"
	"net"
	"sort"
	"strconv"
)

// StatusCoder is implemented by call errors that carry a response status.
type StatusCoder interface {
	HTTPStatus() int
}

// Coder is implemented by call errors that name their own failure bucket.
type Coder interface {
	Code() string
}

// FailureBucket is the number of failed calls of one kind sharing a code.
type FailureBucket struct {
	Kind  Kind
	Code  string
	Count int
}

// FailureCode classifies a call error into a short bucket label: the HTTP
// status when known, a code named by the error itself, otherwise timeout, canceled, connection or error.
func FailureCode(err error) string {
	if err == nil {
		return ""
	}
	var sc StatusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() > 0 {
		return strconv.Itoa(sc.HTTPStatus())
	}
	var coder Coder
	if errors.As(err, &coder) && coder.Code() != "" {
		return coder.Code()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "connection"
	}
	return "error"
}

// FlattenFailureBuckets converts a kind->code map into sorted rows.
// Rows are sorted by descending count, then by kind/code for stability.
func FlattenFailureBuckets(buckets map[Kind]map[string]int) []FailureBucket {
	if len(buckets) == 0 {
		return nil
	}
	rows := make([]FailureBucket, 0)
	for kind, codes := range buckets {
		for code, count := range codes {
			rows = append(rows, FailureBucket{Kind: kind, Code: code, Count: count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			if rows[i].Kind == rows[j].Kind {
				return rows[i].Code < rows[j].Code
			}
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

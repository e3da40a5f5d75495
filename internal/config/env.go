package config

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"
)

// envReader reads typed values from the environment.  A value that is set
// but does not parse is recorded and the default is used in its place, so a
// single pass can report every bad variable at once.
type envReader struct {
    errs []error
}

func (r *envReader) str(key, def string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return def
}

func (r *envReader) num(key string, def int) int {
    v := r.str(key, "")
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, v))
        return def
    }
    return n
}

func (r *envReader) flag(key string, def bool) bool {
    v := strings.ToLower(r.str(key, ""))
    switch v {
    case "":
        return def
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    b, err := strconv.ParseBool(v)
    if err != nil {
        r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
        return def
    }
    return b
}

func (r *envReader) dur(key string, def time.Duration) time.Duration {
    v := r.str(key, "")
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        r.errs = append(r.errs, fmt.Errorf("%s: %q is not a duration", key, v))
        return def
    }
    return d
}

// list splits a comma separated value, dropping empty items.
func (r *envReader) list(key, def string) []string {
    var out []string
    for _, p := range strings.Split(r.str(key, def), ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func (r *envReader) err() error { return errors.Join(r.errs...) }

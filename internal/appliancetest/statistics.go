package appliancetest

// DefaultStatisticsBody is a realtime statistics response that satisfies the
// default schema.
const DefaultStatisticsBody = `{
  "return_code": 0,
  "response": {
    "protocol_accumulate": {
      "Default": {
        "nfs_write_ops": 120,
        "nfs_write_time": 3.5,
        "nfs_read_time": 1.25,
        "nfs_read_ops": 340,
        "nfs_read_bytes": 1048576,
        "nfs_write_bytes": 524288
      }
    }
  }
}`

// StatisticsBodyWithout returns a successful statistics body whose Default
// gateway group lacks the named metrics.
func StatisticsBodyWithout(missing ...string) string {
	skip := make(map[string]bool, len(missing))
	for _, m := range missing {
		skip[m] = true
	}

	metrics := []string{"nfs_write_ops", "nfs_write_time", "nfs_read_time", "nfs_read_ops", "nfs_read_bytes", "nfs_write_bytes"}
	body := `{"return_code": 0, "response": {"protocol_accumulate": {"Default": {`
	first := true
	for _, m := range metrics {
		if skip[m] {
			continue
		}
		if !first {
			body += ", "
		}
		body += `"` + m + `": 1`
		first = false
	}
	return body + `}}}}`
}

package repository

// Option applies a configuration option to the PostgresSource.
type Option func(*PostgresSource)

// WithTable overrides the roster table name.
func WithTable(table string) Option {
	return func(s *PostgresSource) {
		if table != "" {
			s.table = table
		}
	}
}

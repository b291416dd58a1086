package cliutil

import "testing"

func TestRedactSecrets(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{
			name:    "inlineAssignment",
			command: "API_KEY=abc123 bundle exec puma",
			want:    "API_KEY=[redacted] bundle exec puma",
		},
		{
			name:    "quotedAssignment",
			command: `SECRET_KEY_BASE="s3cr3t" DB_PASSWORD='pw' rails s`,
			want:    `SECRET_KEY_BASE="[redacted]" DB_PASSWORD='[redacted]' rails s`,
		},
		{
			name:    "urlCredentials",
			command: "DATABASE_URL=postgres://app:hunter2@db:5432/app bin/worker",
			want:    "DATABASE_URL=postgres://app:[redacted]@db:5432/app bin/worker",
		},
		{
			name:    "flagWithEquals",
			command: "mysqld --password=pw --port 3306",
			want:    "mysqld --password=[redacted] --port 3306",
		},
		{
			name:    "flagWithSpace",
			command: "ngrok http 3000 --auth-token abc.def",
			want:    "ngrok http 3000 --auth-token [redacted]",
		},
		{
			name:    "variableReference",
			command: "rails s -p $PORT -e ${RAILS_ENV}",
			want:    "rails s -p $PORT -e ${RAILS_ENV}",
		},
		{
			name:    "plain",
			command: "echo hello",
			want:    "echo hello",
		},
		{
			name:    "empty",
			command: "",
			want:    "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RedactSecrets(tc.command); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

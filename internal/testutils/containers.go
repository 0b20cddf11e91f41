//go:build integration

package testutils

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// uploadScript is the server side of the upload protocol: it stores the
// field "uploaded_file" into uploaded_files/ and echoes a confirmation.
const uploadScript = `<?php
$dir = __DIR__ . '/uploaded_files/';
if (!is_dir($dir)) {
    mkdir($dir, 0755, true);
}
if ($_SERVER['REQUEST_METHOD'] !== 'POST' || !isset($_FILES['uploaded_file'])) {
    echo 'ready';
    exit;
}
$name = basename($_FILES['uploaded_file']['name']);
if (move_uploaded_file($_FILES['uploaded_file']['tmp_name'], $dir . $name)) {
    echo 'The file ' . htmlspecialchars($name) . ' has been uploaded.';
} else {
    http_response_code(500);
    echo 'upload failed';
}
`

// PHPEnv contains connection information for a PHP upload server container.
type PHPEnv struct {
	Container     testcontainers.Container
	ServerAddress string
}

// Close terminates the container.
func (e *PHPEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// StartPHPContainer starts an Apache/PHP container serving UploadPath and
// DownloadPath.
func StartPHPContainer(t *testing.T, ctx context.Context) *PHPEnv {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "php:8.3-apache",
		ExposedPorts: []string{"80/tcp"},
		Files: []testcontainers.ContainerFile{{
			Reader:            strings.NewReader(uploadScript),
			ContainerFilePath: "/var/www/html/upload.php",
			FileMode:          0o644,
		}},
		// Apache runs as www-data and needs to create uploaded_files/.
		Cmd: []string{"sh", "-c", "chown www-data /var/www/html && exec apache2-foreground"},
		WaitingFor: wait.ForHTTP(UploadPath).
			WithPort("80/tcp").
			WithStartupTimeout(2 * time.Minute),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start php container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "80/tcp")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	return &PHPEnv{
		Container:     c,
		ServerAddress: fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}

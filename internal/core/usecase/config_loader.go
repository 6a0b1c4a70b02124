package usecase

import (
	"bufio"
	"os"
	"strings"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"github.com/pkg/errors"
)

const commentPrefix = "//"

// LoadJobConfig lee el fichero key=value del job. Las líneas en blanco y las
// que empiezan por "//" se ignoran; cualquier otra línea debe contener "=".
func LoadJobConfig(path string) (domain.JobConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.JobConfig{}, errors.Wrapf(domain.ErrConfigNotFound, "config file %s", path)
		}
		return domain.JobConfig{}, errors.Wrapf(err, "failed to open config file %s", path)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return domain.JobConfig{}, errors.Wrapf(domain.ErrConfigMalformed, "%s:%d: %q", path, lineNo, line)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return domain.JobConfig{}, errors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg := domain.JobConfig{Path: path, Values: values}
	for _, addr := range domain.SplitList(values[domain.KeyWorkers]) {
		cfg.Endpoints = append(cfg.Endpoints, domain.WorkerEndpoint(addr))
	}
	if len(cfg.Endpoints) == 0 {
		return cfg, errors.Wrapf(domain.ErrNoWorkersConfigured, "key %s in %s", domain.KeyWorkers, path)
	}
	return cfg, nil
}

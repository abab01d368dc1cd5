package database

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxDocumentIDBytes - лимит Firestore на длину id документа.
const maxDocumentIDBytes = 1500

// Firestore collections.
const (
	storiesCollection  = "stories"
	progressCollection = "progress"
)

// FirestoreConfig - параметры подключения к Firestore.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// NewFirestoreClient инициализирует Firebase App и возвращает клиент Firestore.
// Без файла ключа используются Application Default Credentials (или эмулятор
// через FIRESTORE_EMULATOR_HOST).
func NewFirestoreClient(ctx context.Context, cfg FirestoreConfig, logger *zap.Logger) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	logger.Info("Firestore client initialized",
		zap.String("projectID", cfg.ProjectID),
		zap.Bool("credentialsFile", cfg.CredentialsFile != ""),
	)
	return client, nil
}

func isFirestoreNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// isValidDocumentID повторяет клиентскую проверку Firestore: с невалидным id
// запрос не уходит на сервер, а ошибка приходит с кодом Unknown.
func isValidDocumentID(id string) bool {
	switch {
	case id == "", len(id) > maxDocumentIDBytes:
		return false
	case strings.Contains(id, "/"):
		return false
	case id == "." || id == "..":
		return false
	case len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"):
		return false
	}
	return true
}

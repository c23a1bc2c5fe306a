package services_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	services "portfolio_cms/internal/services/media_service"
	"portfolio_cms/internal/storage"
	"portfolio_cms/internal/transport/http/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) Save(ctx context.Context, file *multipart.FileHeader, relPath string) (int64, error) {
	args := m.Called(ctx, file, relPath)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileStorage) Delete(ctx context.Context, relPath string) error {
	args := m.Called(ctx, relPath)
	return args.Error(0)
}

func (m *MockFileStorage) PublicURL(relPath string) string {
	args := m.Called(relPath)
	return args.String(0)
}

func (m *MockFileStorage) BaseDir() string {
	args := m.Called()
	return args.String(0)
}

func createTestFile(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	err = writer.Close()
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	file.Close()

	return header
}

func TestMediaService_Upload(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("successful upload", func(t *testing.T) {
		mockStorage := new(MockFileStorage)
		service := services.NewMediaService(log, mockStorage, 1024)

		testFile := createTestFile(t, "photo.jpg", "test content")

		var savedPath string
		mockStorage.On("Save", ctx, testFile, mock.MatchedBy(func(p string) bool {
			savedPath = p
			return strings.HasPrefix(p, "gallery/") && strings.HasSuffix(p, "_photo.jpg")
		})).Return(int64(12), nil).Once()
		mockStorage.On("PublicURL", mock.AnythingOfType("string")).
			Return("http://localhost:8080/uploads/gallery/photo.jpg").Once()

		result, err := service.Upload(ctx, dto.MediaUploadInput{File: testFile, Folder: "gallery"})

		require.NoError(t, err)
		assert.Equal(t, savedPath, result.Path)
		assert.Equal(t, int64(12), result.Size)
		assert.NotEmpty(t, result.URL)
		mockStorage.AssertExpectations(t)
	})

	t.Run("spaces in name are replaced", func(t *testing.T) {
		mockStorage := new(MockFileStorage)
		service := services.NewMediaService(log, mockStorage, 1024)

		testFile := createTestFile(t, "my photo.jpg", "x")

		mockStorage.On("Save", ctx, testFile, mock.MatchedBy(func(p string) bool {
			return !strings.Contains(p, " ") && strings.HasSuffix(p, "_my_photo.jpg")
		})).Return(int64(1), nil).Once()
		mockStorage.On("PublicURL", mock.AnythingOfType("string")).Return("u").Once()

		_, err := service.Upload(ctx, dto.MediaUploadInput{File: testFile, Folder: "avatars"})

		require.NoError(t, err)
		mockStorage.AssertExpectations(t)
	})

	t.Run("unknown folder rejected", func(t *testing.T) {
		mockStorage := new(MockFileStorage)
		service := services.NewMediaService(log, mockStorage, 1024)

		testFile := createTestFile(t, "photo.jpg", "x")

		result, err := service.Upload(ctx, dto.MediaUploadInput{File: testFile, Folder: "../etc"})

		assert.ErrorIs(t, err, storage.ErrInvalidFolder)
		assert.Nil(t, result)
		mockStorage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oversized file rejected", func(t *testing.T) {
		mockStorage := new(MockFileStorage)
		service := services.NewMediaService(log, mockStorage, 4)

		testFile := createTestFile(t, "big.jpg", "more than four bytes")

		result, err := service.Upload(ctx, dto.MediaUploadInput{File: testFile, Folder: "posts"})

		assert.ErrorIs(t, err, storage.ErrFileTooLarge)
		assert.Nil(t, result)
		mockStorage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

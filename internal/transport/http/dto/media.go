package dto

import "mime/multipart"

type MediaUploadInput struct {
	File   *multipart.FileHeader `json:"-" form:"file" validate:"required"`
	Folder string                `json:"folder" form:"folder" validate:"required"`
}

type MediaUploadResult struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

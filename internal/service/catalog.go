package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/validation"
)

// ProductView объединяет товар с его деталями и остатком мест.
type ProductView struct {
	Product   model.Product
	Event     *model.EventDetails
	Content   *model.DigitalContentDetails
	Remaining *model.Remaining
}

// NewEvent содержит данные для создания события.
type NewEvent struct {
	Title       string
	Description *string
	Price       int64
	Details     model.EventDetails
}

// NewDigitalContent содержит данные для создания цифрового материала.
type NewDigitalContent struct {
	Title       string
	Description *string
	Price       int64
	File        Upload
}

// Upload описывает загружаемый файл.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ProductPatch содержит изменяемые поля товара. Nil означает «не менять».
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *int64
}

// GetProduct возвращает товар с деталями; для событий также считается остаток мест.
func (s *Service) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, product)
}

// ListProducts возвращает каталог, начиная с самых новых товаров.
func (s *Service) ListProducts(ctx context.Context, typ model.ProductType) ([]ProductView, error) {
	if typ != "" && !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown product type %q", model.ErrValidation, typ)
	}

	products, err := s.repo.ListProducts(ctx, typ)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		v, err := s.view(ctx, &products[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *Service) view(ctx context.Context, product *model.Product) (*ProductView, error) {
	v := &ProductView{Product: *product}

	switch product.Type {
	case model.ProductTypeEvent:
		details, err := s.repo.GetEventDetails(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		remaining, err := s.RemainingCapacity(ctx, product.ID, details.Capacity)
		if err != nil {
			return nil, err
		}
		v.Event = details
		v.Remaining = &remaining
	case model.ProductTypeDigitalContent:
		details, err := s.repo.GetDigitalContentDetails(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		v.Content = details
	}

	return v, nil
}

// CreateEvent создаёт товар типа event.
func (s *Service) CreateEvent(ctx context.Context, p model.Principal, in NewEvent) (*ProductView, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validation.Product(in.Title, in.Price); err != nil {
		return nil, err
	}
	if err := validation.Event(in.Details); err != nil {
		return nil, err
	}

	product := &model.Product{
		Type:        model.ProductTypeEvent,
		Title:       strings.TrimSpace(in.Title),
		Description: trimOptional(in.Description),
		Price:       in.Price,
	}
	details := in.Details
	details.Location = trimOptional(details.Location)
	details.MeetingURL = trimOptional(details.MeetingURL)

	if err := s.repo.CreateEvent(ctx, product, &details); err != nil {
		return nil, err
	}

	remaining, err := s.RemainingCapacity(ctx, product.ID, details.Capacity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("event created", zap.String("productID", product.ID), zap.String("by", p.Subject))
	return &ProductView{Product: *product, Event: &details, Remaining: &remaining}, nil
}

// CreateDigitalContent загружает файл в хранилище и создаёт товар типа digital_content.
// Если запись в БД не удалась, загруженный файл удаляется.
func (s *Service) CreateDigitalContent(ctx context.Context, p model.Principal, in NewDigitalContent) (*ProductView, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validation.Product(in.Title, in.Price); err != nil {
		return nil, err
	}
	if err := validateUpload(in.File); err != nil {
		return nil, err
	}

	blobs, err := s.blobStore()
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          uuid.NewString(),
		Type:        model.ProductTypeDigitalContent,
		Title:       strings.TrimSpace(in.Title),
		Description: trimOptional(in.Description),
		Price:       in.Price,
	}

	key := contentKey(product.ID, in.File.Name)
	fileURL, err := blobs.Upload(ctx, key, in.File.Data, in.File.ContentType)
	if err != nil {
		return nil, err
	}

	details := &model.DigitalContentDetails{FileName: in.File.Name, FileURL: fileURL}
	if err := s.repo.CreateDigitalContent(ctx, product, details); err != nil {
		s.removeBlob(ctx, key)
		return nil, err
	}

	s.logger.Info("digital content created", zap.String("productID", product.ID), zap.String("by", p.Subject))
	return &ProductView{Product: *product, Content: details}, nil
}

// UpdateProduct изменяет общие поля товара. Уже созданные покупки сохраняют свои цены.
func (s *Service) UpdateProduct(ctx context.Context, p model.Principal, id string, patch ProductPatch) (*ProductView, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		product.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		product.Description = trimOptional(patch.Description)
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}

	if err := validation.Product(product.Title, product.Price); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return s.view(ctx, product)
}

// UpdateEvent заменяет параметры события. Уменьшение вместимости ниже числа
// существующих покупок допускается, остаток мест при этом равен нулю.
func (s *Service) UpdateEvent(ctx context.Context, p model.Principal, id string, details model.EventDetails) (*ProductView, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Type != model.ProductTypeEvent {
		return nil, fmt.Errorf("%w: product %s is not an event", model.ErrValidation, id)
	}
	if err := validation.Event(details); err != nil {
		return nil, err
	}

	details.ProductID = product.ID
	details.Location = trimOptional(details.Location)
	details.MeetingURL = trimOptional(details.MeetingURL)

	if err := s.repo.UpdateEventDetails(ctx, &details); err != nil {
		return nil, err
	}
	return s.view(ctx, product)
}

// ReplaceContentFile загружает новый файл цифрового материала и удаляет старый.
// Старый файл удаляется только после успешного обновления записи.
func (s *Service) ReplaceContentFile(ctx context.Context, p model.Principal, id string, file Upload) (*ProductView, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateUpload(file); err != nil {
		return nil, err
	}

	blobs, err := s.blobStore()
	if err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Type != model.ProductTypeDigitalContent {
		return nil, fmt.Errorf("%w: product %s is not digital content", model.ErrValidation, id)
	}

	details, err := s.repo.GetDigitalContentDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := blobKey(details.FileURL)

	key := contentKey(product.ID, file.Name)
	fileURL, err := blobs.Upload(ctx, key, file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}

	updated := &model.DigitalContentDetails{ProductID: product.ID, FileName: file.Name, FileURL: fileURL}
	if err := s.repo.UpdateDigitalContentDetails(ctx, updated); err != nil {
		s.removeBlob(ctx, key)
		return nil, err
	}

	if oldKey != "" && oldKey != key {
		s.removeBlob(ctx, oldKey)
	}

	return &ProductView{Product: *product, Content: updated}, nil
}

// DeleteProduct удаляет товар вместе с деталями и покупками. Файл цифрового материала
// удаляется из хранилища после удаления записи.
func (s *Service) DeleteProduct(ctx context.Context, p model.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	var key string
	if product.Type == model.ProductTypeDigitalContent {
		details, err := s.repo.GetDigitalContentDetails(ctx, id)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		if details != nil {
			key = blobKey(details.FileURL)
		}
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if key != "" && s.blobs != nil {
		s.removeBlob(ctx, key)
	}

	s.logger.Info("product deleted", zap.String("productID", id), zap.String("by", p.Subject))
	return nil
}

// DownloadContent возвращает файл цифрового материала по завершённой покупке.
func (s *Service) DownloadContent(ctx context.Context, purchaseID string) (string, []byte, error) {
	purchase, err := s.repo.GetPurchase(ctx, purchaseID)
	if err != nil {
		return "", nil, err
	}
	if purchase.PaymentStatus != model.PaymentStatusCompleted {
		return "", nil, fmt.Errorf("%w: purchase %s is %s", model.ErrValidation, purchaseID, purchase.PaymentStatus)
	}

	details, err := s.repo.GetDigitalContentDetails(ctx, purchase.ProductID)
	if err != nil {
		return "", nil, err
	}

	blobs, err := s.blobStore()
	if err != nil {
		return "", nil, err
	}

	data, err := blobs.Download(ctx, blobKey(details.FileURL))
	if err != nil {
		return "", nil, err
	}
	return details.FileName, data, nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if err := s.blobs.Remove(ctx, key); err != nil {
		s.logger.Warn("remove blob error", zap.Error(err), zap.String("key", key))
	}
}

func validateUpload(f Upload) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: file name is required", model.ErrValidation)
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: file is empty", model.ErrValidation)
	}
	return nil
}

// contentKey строит ключ файла вида <productID>-<random>.<ext>.
func contentKey(productID, fileName string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return productID + "-" + suffix + strings.ToLower(path.Ext(fileName))
}

// blobKey извлекает ключ файла из его публичного адреса.
func blobKey(fileURL string) string {
	if fileURL == "" {
		return ""
	}
	base := path.Base(fileURL)
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

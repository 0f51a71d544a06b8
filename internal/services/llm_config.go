package services

import (
	"errors"

	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"gorm.io/gorm"
)

var ErrLLMConfigNotFound = errors.New("llm config not found")

// LLMConfigService manages the summarizer provider configurations.
type LLMConfigService struct {
	db *gorm.DB
}

func NewLLMConfigService(db *gorm.DB) *LLMConfigService {
	return &LLMConfigService{db: db}
}

type LLMConfigListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Name     string `form:"name"`
	Provider string `form:"provider"`
	IsActive *bool  `form:"is_active"`
}

type LLMConfigListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.LLMConfig `json:"items"`
}

// BaseURL is optional: anthropic and gemini use their public endpoints.
type CreateLLMConfigRequest struct {
	Name        string  `json:"name" binding:"required"`
	Provider    string  `json:"provider" binding:"omitempty,oneof=openai azure anthropic ollama gemini"`
	BaseURL     string  `json:"base_url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model" binding:"required"`
	MaxTokens   int     `json:"max_tokens" binding:"omitempty,min=1"`
	Temperature float64 `json:"temperature" binding:"omitempty,min=0,max=2"`
	IsDefault   bool    `json:"is_default"`
	IsActive    bool    `json:"is_active"`
}

// UpdateLLMConfigRequest only touches the fields that are set. An empty
// APIKey keeps the stored one.
type UpdateLLMConfigRequest struct {
	Name        string   `json:"name"`
	Provider    string   `json:"provider" binding:"omitempty,oneof=openai azure anthropic ollama gemini"`
	BaseURL     *string  `json:"base_url"`
	APIKey      string   `json:"api_key"`
	Model       string   `json:"model"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	IsDefault   *bool    `json:"is_default"`
	IsActive    *bool    `json:"is_active"`
}

func masked(configs []models.LLMConfig) []models.LLMConfig {
	for i := range configs {
		configs[i].APIKeyMask = configs[i].MaskAPIKey()
	}
	return configs
}

func (s *LLMConfigService) List(req *LLMConfigListRequest) (*LLMConfigListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	query := s.db.Model(&models.LLMConfig{})
	if req.Name != "" {
		query = query.Where("name LIKE ? OR model LIKE ?", "%"+req.Name+"%", "%"+req.Name+"%")
	}
	if req.Provider != "" {
		query = query.Where("provider = ?", req.Provider)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var configs []models.LLMConfig
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("is_default DESC, id ASC").Find(&configs).Error; err != nil {
		return nil, err
	}

	return &LLMConfigListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    masked(configs),
	}, nil
}

// GetByID returns a config with its key. Handlers must not serialize APIKey;
// the json tag already hides it.
func (s *LLMConfigService) GetByID(id uint) (*models.LLMConfig, error) {
	var cfg models.LLMConfig
	if err := s.db.First(&cfg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLLMConfigNotFound
		}
		return nil, err
	}
	cfg.APIKeyMask = cfg.MaskAPIKey()
	return &cfg, nil
}

// GetDefault returns the default active config, or any active one.
func (s *LLMConfigService) GetDefault() (*models.LLMConfig, error) {
	var cfg models.LLMConfig
	err := s.db.Where("is_default = ? AND is_active = ?", true, true).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Where("is_active = ?", true).Order("id ASC").First(&cfg).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLLMConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *LLMConfigService) Create(req *CreateLLMConfigRequest) (*models.LLMConfig, error) {
	cfg := models.LLMConfig{
		Name:        req.Name,
		Provider:    req.Provider,
		BaseURL:     req.BaseURL,
		APIKey:      req.APIKey,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		IsDefault:   req.IsDefault,
		IsActive:    req.IsActive,
	}
	if cfg.Provider == "" {
		cfg.Provider = models.ProviderOpenAI
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if cfg.IsDefault {
			if err := tx.Model(&models.LLMConfig{}).Where("is_default = ?", true).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&cfg).Error
	})
	if err != nil {
		return nil, err
	}

	cfg.APIKeyMask = cfg.MaskAPIKey()
	return &cfg, nil
}

func (s *LLMConfigService) Update(id uint, req *UpdateLLMConfigRequest) (*models.LLMConfig, error) {
	cfg, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Provider != "" {
		updates["provider"] = req.Provider
	}
	if req.BaseURL != nil {
		updates["base_url"] = *req.BaseURL
	}
	if req.APIKey != "" {
		updates["api_key"] = req.APIKey
	}
	if req.Model != "" {
		updates["model"] = req.Model
	}
	if req.MaxTokens != nil {
		updates["max_tokens"] = *req.MaxTokens
	}
	if req.Temperature != nil {
		updates["temperature"] = *req.Temperature
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return cfg, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault != nil && *req.IsDefault {
			if err := tx.Model(&models.LLMConfig{}).Where("is_default = ? AND id <> ?", true, id).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(cfg).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *LLMConfigService) Delete(id uint) error {
	result := s.db.Delete(&models.LLMConfig{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLLMConfigNotFound
	}
	return nil
}

// GetActive lists active configs, default first.
func (s *LLMConfigService) GetActive() ([]models.LLMConfig, error) {
	var configs []models.LLMConfig
	if err := s.db.Where("is_active = ?", true).Order("is_default DESC, id ASC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return masked(configs), nil
}

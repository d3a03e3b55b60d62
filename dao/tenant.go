package dao

import (
	"consultant-agent-backend/model"
	"errors"

	"gorm.io/gorm"
)

func GetTenantByID(id string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := DB.Where("id = ?", id).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func UpdateTenant(id string, updates map[string]any) error {
	return DB.Model(&model.Tenant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

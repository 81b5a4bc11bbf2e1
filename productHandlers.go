package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
)

var productDecimalFields = []string{"price", "quantity", "cost"}

// productFormValues reads the shared multipart fields of create and update.
func productFormValues(c *gin.Context) (*models.UpdateProductInput, error) {
	amounts, err := formDecimals(c, productDecimalFields...)
	if err != nil {
		return nil, err
	}
	return &models.UpdateProductInput{
		Name:        formString(c, "name"),
		Price:       amounts["price"],
		Size:        formString(c, "size"),
		Category:    formString(c, "category"),
		Type:        formString(c, "type"),
		Quantity:    amounts["quantity"],
		ImageUrl:    formString(c, "imageUrl"),
		Description: formString(c, "description"),
		IsSellable:  formBool(c, "isSellable"),
		IsStockItem: formBool(c, "isStockItem"),
		Cost:        amounts["cost"],
		Active:      formBool(c, "active"),
	}, nil
}

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		typeId := 0
		if v := c.Query("typeId"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				badRequest(c, "invalid typeId")
				return
			}
			typeId = id
		}
		products, err := models.ListProducts(c.Request.Context(), typeId, c.Query("type"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		product, err := models.GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		var image *models.FileUpload
		if isMultipart(c) {
			values, err := productFormValues(c)
			if err != nil {
				respondError(c, err)
				return
			}
			input = models.NewProduct{
				Name:        utils.DereferencePtr(values.Name),
				Price:       utils.DereferencePtr(values.Price),
				Size:        values.Size,
				Category:    utils.DereferencePtr(values.Category),
				Type:        values.Type,
				Quantity:    values.Quantity,
				ImageUrl:    values.ImageUrl,
				Description: values.Description,
				IsSellable:  values.IsSellable,
				IsStockItem: values.IsStockItem,
				Cost:        values.Cost,
				Active:      values.Active,
			}
			if image, err = readImageUpload(c, "image"); err != nil {
				respondError(c, err)
				return
			}
		} else if !bindJSON(c, &input) {
			return
		}

		product, err := models.CreateProduct(c.Request.Context(), &input, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input *models.UpdateProductInput
		var image *models.FileUpload
		if isMultipart(c) {
			var err error
			if input, err = productFormValues(c); err != nil {
				respondError(c, err)
				return
			}
			if image, err = readImageUpload(c, "image"); err != nil {
				respondError(c, err)
				return
			}
		} else {
			input = &models.UpdateProductInput{}
			if !bindJSON(c, input) {
				return
			}
		}

		product, err := models.UpdateProduct(c.Request.Context(), id, input, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		product, _, err := models.DeleteProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func productImageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		thumb := utils.DereferencePtr(utils.ParseFormBool(c.Query("thumb")))
		data, contentType, err := models.GetProductImage(c.Request.Context(), id, thumb)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Data(http.StatusOK, contentType, data)
	}
}

/* variants */

func listVariantsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		variants, err := models.ListProductVariants(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, variants)
	}
}

func createVariantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input models.NewProductVariant
		if !bindJSON(c, &input) {
			return
		}
		variant, err := models.CreateProductVariant(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, variant)
	}
}

func updateVariantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input models.UpdateProductVariantInput
		if !bindJSON(c, &input) {
			return
		}
		variant, err := models.UpdateProductVariant(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, variant)
	}
}

func adjustStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input models.NewStockAdjustment
		if !bindJSON(c, &input) {
			return
		}
		variant, err := models.AdjustVariantStock(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, variant)
	}
}

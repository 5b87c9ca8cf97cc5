package shafa

const createProductMutation = `mutation WEB_CreateProduct(
  $photosStr: [String],
  $nameUk: String,
  $nameRu: String,
  $descriptionUk: String,
  $descriptionRu: String,
  $isUkToRuTranslationEnabled: Boolean,
  $videoOverview: String,
  $catalog: String!,
  $condition: ConditionEnum!,
  $brand: Int,
  $userBrand: Int,
  $colors: [ColorEnum]!,
  $characteristics: [Int!],
  $size: Int,
  $additionalSizes: [Int],
  $count: Int,
  $sellingCondition: SellingConditionEnum!,
  $price: Int,
  $priceVariants: [CreatePriceVariantType!],
  $keyWords: [String],
  $gtin: String
) {
  createProduct(
    photosStr: $photosStr
    nameUk: $nameUk
    nameRu: $nameRu
    descriptionUk: $descriptionUk
    descriptionRu: $descriptionRu
    isUkToRuTranslationEnabled: $isUkToRuTranslationEnabled
    videoOverview: $videoOverview
    catalog: $catalog
    condition: $condition
    brand: $brand
    userBrand: $userBrand
    colors: $colors
    characteristics: $characteristics
    size: $size
    additionalSizes: $additionalSizes
    count: $count
    sellingCondition: $sellingCondition
    price: $price
    priceVariants: $priceVariants
    keyWords: $keyWords
    gtin: $gtin
  ) {
    createdProduct { id __typename }
    errors { field messages { code message __typename } __typename }
    __typename
  }
}`

const uploadPhotoMutation = `mutation UploadPhoto($file: String!) {
  uploadPhoto(uploadFile: $file) {
    idStr
    thumbnailUrl
    originalUrl
    errors { field messages { code message } }
  }
}`

const sizesQuery = `query WEB_ProductFormSizes($catalogSlug: String!) {
  filterSize(catalogSlug: $catalogSlug) {
    id
    primarySizeName
    secondarySizeName
    __typename
  }
}`

const brandsQuery = `query WEB_ProductFormTopBrands($catalogSlug: String) {
  filterTopBrands(catalogSlug: $catalogSlug) {
    topBrands { id name isUkrainian __typename }
    brands { id name isUkrainian __typename }
    __typename
  }
}`

const deactivateProductsMutation = `mutation WEB_deactivateProducts(
  $includeIds: [Int]
  $excludeIds: [Int]
  $allProducts: Boolean
) {
  deactivateProducts(
    includeIds: $includeIds
    excludeIds: $excludeIds
    allProducts: $allProducts
  ) {
    isSuccess
    errors { field messages { code __typename } __typename }
    __typename
  }
}`

const productsFeedQuery = `query WEB_MyClothesProductsFeed(
  $first: Int
  $after: String
  $orderBy: String
  $catalogSlug: String
  $productsType: ProfileProductTypeEnum
) {
  viewer {
    id
    products: viewerProducts(
      first: $first
      after: $after
      orderBy: $orderBy
      catalogSlug: $catalogSlug
      productsType: $productsType
    ) {
      edges {
        node {
          id
          url
          name
          price
          statusTitle
          catalogSlug
          isOutOfStock
          createdAt
          brand { id name __typename }
          __typename
        }
        __typename
      }
      pageInfo { endCursor hasNextPage total __typename }
      __typename
    }
    __typename
  }
}`

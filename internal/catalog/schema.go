package catalog

// documentSchema validates a catalog document at load time. A document that
// fails validation is a fatal startup error, never a per-query one.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "businessTypes"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "businessTypes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["typeId", "displayName", "keywords", "templates"],
        "properties": {
          "typeId": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
          "displayName": {"type": "string", "minLength": 1},
          "keywords": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "templates": {
            "type": "array",
            "items": {"$ref": "#/definitions/template"}
          },
          "resources": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    },
    "jurisdictions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["code", "name"],
        "properties": {
          "code": {"type": "string", "pattern": "^[A-Z]{2}$"},
          "name": {"type": "string", "minLength": 1},
          "officialLinks": {
            "type": "array",
            "items": {"type": "string"}
          },
          "overrides": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["typeId", "templates"],
              "properties": {
                "typeId": {"type": "string"},
                "templates": {
                  "type": "array",
                  "minItems": 1,
                  "items": {"$ref": "#/definitions/template"}
                }
              }
            }
          }
        }
      }
    }
  },
  "definitions": {
    "template": {
      "type": "object",
      "required": ["licenseId", "title", "category", "cost", "timeline"],
      "properties": {
        "licenseId": {"type": "string", "minLength": 1},
        "title": {"type": "string", "minLength": 1},
        "category": {"type": "string", "minLength": 1},
        "cost": {
          "type": "object",
          "required": ["min", "max"],
          "properties": {
            "min": {"type": "integer", "minimum": 0},
            "max": {"type": "integer", "minimum": 0}
          }
        },
        "timeline": {
          "type": "object",
          "required": ["minWeeks", "maxWeeks"],
          "properties": {
            "minWeeks": {"type": "integer", "minimum": 0},
            "maxWeeks": {"type": "integer", "minimum": 0}
          }
        },
        "sourceUrls": {
          "type": "array",
          "items": {"type": "string"}
        }
      }
    }
  }
}`
